package contact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-qa/portfolio-e2e/internal/logging"
)

func TestBuildEmail(t *testing.T) {
	s := Submission{Name: "QA <b>", Email: "qa@test.dev", Message: "1 < 2 & 3 > 2\nbye", Source: "linkedin"}
	e := BuildEmail(s, "from@x.dev", "to@x.dev")

	assert.Equal(t, "Portfolio inquiry from QA <b>", e.Subject)
	assert.Equal(t, "Name: QA <b>\nEmail: qa@test.dev\nSource: linkedin\nMessage:\n1 < 2 & 3 > 2\nbye", e.Text)
	assert.Contains(t, e.HTML, "<p>1 &lt; 2 &amp; 3 &gt; 2<br />bye</p>")
	assert.Contains(t, e.HTML, "QA &lt;b&gt;")
	assert.Contains(t, e.HTML, "<strong>Source:</strong> linkedin")
}

func TestBuildEmailWithoutSource(t *testing.T) {
	e := BuildEmail(Submission{Name: "QA", Email: "qa@test.dev", Message: "hello there"}, "f", "t")
	assert.Equal(t, "Name: QA\nEmail: qa@test.dev\nMessage:\nhello there", e.Text)
	assert.NotContains(t, e.HTML, "Source")
}

func TestResendMailer(t *testing.T) {
	var got Email
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewResendMailer(srv.URL, "re_test", logging.Null())
	e := BuildEmail(Submission{Name: "QA", Email: "qa@test.dev", Message: "hello there"}, "f@x.dev", "t@x.dev")
	require.NoError(t, m.Send(context.Background(), e))
	assert.Equal(t, e, got)
}

func TestResendMailerRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid from"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	m := NewResendMailer(srv.URL, "re_test", logging.Null())
	err := m.Send(context.Background(), Email{})
	assert.ErrorIs(t, err, ErrProviderRejected)
}

func TestResendMailerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := NewResendMailer(url, "re_test", logging.Null())
	err := m.Send(context.Background(), Email{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProviderRejected)
}
