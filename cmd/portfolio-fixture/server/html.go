package server

// HTMLPage is the fixture portfolio page. It carries the hero, the automation
// and project demo modals, and the contact form posting to /api/contact.
const HTMLPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Josh | QA Automation Engineer</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 960px;
            margin: 0 auto;
            padding: 20px;
            background: #0f1115;
            color: #e8e8e8;
        }
        .hidden { display: none; }
        header.hero { padding: 60px 0 40px; }
        header.hero h1 { font-size: 48px; margin: 0; }
        header.hero h1 span { display: block; color: #4ade80; }
        section { margin: 40px 0; }
        button {
            background: #4285f4;
            color: white;
            border: none;
            padding: 12px 24px;
            border-radius: 4px;
            cursor: pointer;
            font-size: 16px;
            margin-right: 10px;
        }
        .cards { display: flex; gap: 16px; }
        .card { background: #1a1d24; padding: 20px; border-radius: 8px; flex: 1; }
        .modal {
            position: fixed;
            inset: 0;
            background: rgba(0,0,0,0.6);
            display: flex;
            align-items: center;
            justify-content: center;
        }
        .modal.hidden { display: none; }
        .modal-body { background: #1a1d24; padding: 30px; border-radius: 8px; min-width: 320px; }
        form label { display: block; margin: 12px 0 4px; }
        form input, form textarea { width: 100%; padding: 8px; box-sizing: border-box; }
        .trap { position: absolute; left: -10000px; }
    </style>
</head>
<body>
    <header class="hero">
        <h1>Break the Code.<span>Not the User.</span></h1>
        <p>Cross-browser automation, API contract checks and accessibility audits.</p>
    </header>

    <section id="automation">
        <h2>Automation</h2>
        <button type="button" id="open-demo">Crossbrowser E2E</button>
    </section>

    <section id="projects">
        <h2>Projects</h2>
        <div class="cards">
            <div class="card">
                <h3>API Explorer</h3>
                <button type="button" class="project-demo" data-project="api-explorer">Watch demo</button>
            </div>
            <div class="card">
                <h3>A11y Dashboard</h3>
                <button type="button" class="project-demo" data-project="a11y-dashboard">Watch demo</button>
            </div>
        </div>
    </section>

    <section id="contact">
        <h2>Contact</h2>
        <form id="contact-form">
            <label for="contact-name">Name</label>
            <input id="contact-name" name="name" placeholder="John Doe" required>
            <label for="contact-email">Email</label>
            <input id="contact-email" name="email" type="email" placeholder="you@example.com" required>
            <label for="contact-message">Message</label>
            <textarea id="contact-message" name="message" rows="5" placeholder="Tell me about your project..." required></textarea>
            <div class="trap" aria-hidden="true">
                <input name="company" tabindex="-1" autocomplete="off">
            </div>
            <p><button type="submit">Send Message</button></p>
        </form>
    </section>

    <div id="demo-modal" class="modal hidden" role="dialog" aria-modal="true">
        <div class="modal-body">
            <h3>Playwright + Pytest E2E</h3>
            <p>Chromium, Firefox and WebKit runs with traces on every failure.</p>
            <button type="button" data-close="demo-modal">Close</button>
        </div>
    </div>

    <div id="project-demo-modal" class="modal hidden" role="dialog" aria-modal="true">
        <div class="modal-body">
            <h3>Project Demo</h3>
            <p id="project-demo-name"></p>
            <button type="button" data-close="project-demo-modal">Close</button>
        </div>
    </div>

    <script>
        function show(id) { document.getElementById(id).classList.remove('hidden'); }
        function hide(id) { document.getElementById(id).classList.add('hidden'); }

        document.getElementById('open-demo').addEventListener('click', () => show('demo-modal'));

        document.querySelectorAll('.project-demo').forEach((btn) => {
            btn.addEventListener('click', () => {
                document.getElementById('project-demo-name').textContent = btn.dataset.project;
                show('project-demo-modal');
            });
        });

        document.querySelectorAll('[data-close]').forEach((btn) => {
            btn.addEventListener('click', () => hide(btn.dataset.close));
        });

        document.getElementById('contact-form').addEventListener('submit', async (event) => {
            event.preventDefault();
            const form = event.target;
            const payload = {
                name: form.elements['name'].value,
                email: form.elements['email'].value,
                message: form.elements['message'].value,
                company: form.elements['company'].value,
                source: window.location.href,
            };
            try {
                const res = await fetch('/api/contact', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify(payload),
                });
                const data = await res.json();
                if (data.ok) {
                    alert("Thanks for reaching out! I'll get back to you soon.");
                    form.reset();
                } else {
                    alert('Sorry, something went wrong: ' + data.error);
                }
            } catch (err) {
                alert('Sorry, something went wrong. Please try again later.');
            }
        });
    </script>
</body>
</html>
`
