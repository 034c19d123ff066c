package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslostfound/lostfound/internal/model"
)

func pair() (*model.Report, *model.Report) {
	at := "09:15"
	lost := &model.Report{
		ReportID: "l1", Kind: model.KindLost, Category: "Phone", Title: "Black iPhone",
		Description: "cracked corner", Location: "Cafeteria", OccurredOn: "2026-10-01", OccurredAt: &at,
		ImageRef: "https://img.example/l1.jpg",
	}
	found := &model.Report{
		ReportID: "f1", Kind: model.KindFound, Category: "Phone", Title: "iPhone found at library",
		Location: "Library", OccurredOn: "2026-10-02",
	}
	return lost, found
}

func TestBuildPrompt_IncludesBothReports(t *testing.T) {
	lost, found := pair()
	p := BuildPrompt(lost, found)

	for _, want := range []string{
		"LOST ITEM:", "FOUND ITEM:",
		"Black iPhone", "iPhone found at library",
		"cracked corner", "Cafeteria", "Library",
		"2026-10-01 09:15", "2026-10-02",
		"https://img.example/l1.jpg", "- Image: none",
		`"confidence"`, `"reasoning"`,
	} {
		assert.Contains(t, p, want)
	}
}

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    Verdict
		wantErr bool
	}{
		{name: "plain", in: `{"confidence": 85, "reasoning": "same model"}`, want: Verdict{85, "same model"}},
		{name: "fenced", in: "```json\n{\"confidence\": 72, \"reasoning\": \"ok\"}\n```", want: Verdict{72, "ok"}},
		{name: "prose around", in: `Sure! {"confidence": 61.6, "reasoning": "x"} Hope that helps.`, want: Verdict{61, "x"}},
		{name: "string number", in: `{"confidence": "70", "reasoning": "y"}`, want: Verdict{70, "y"}},
		{name: "percent string", in: `{"confidence": "90%", "reasoning": ""}`, want: Verdict{90, ""}},
		{name: "just under persist", in: `{"confidence": 69.5}`, want: Verdict{69, ""}},
		{name: "just under accept", in: `{"confidence": 59.5}`, want: Verdict{59, ""}},
		{name: "fractional string", in: `{"confidence": "69.9%"}`, want: Verdict{69, ""}},
		{name: "upper bound", in: `{"confidence": 100}`, want: Verdict{100, ""}},
		{name: "lower bound", in: `{"confidence": 0}`, want: Verdict{0, ""}},
		{name: "above range", in: `{"confidence": 150}`, wantErr: true},
		{name: "below range", in: `{"confidence": -1}`, wantErr: true},
		{name: "barely above range", in: `{"confidence": 100.5}`, wantErr: true},
		{name: "missing", in: `{"reasoning": "no idea"}`, wantErr: true},
		{name: "null", in: `{"confidence": null}`, wantErr: true},
		{name: "non numeric", in: `{"confidence": "high"}`, wantErr: true},
		{name: "boolean", in: `{"confidence": true}`, wantErr: true},
		{name: "no object", in: `I cannot compare these.`, wantErr: true},
		{name: "broken json", in: `{"confidence": 80,`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseVerdict(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNoOpinion))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func chatReply(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []interface{}{
			map[string]interface{}{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
}

func TestChatOracle_Assess(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected auth header %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(chatReply(`{"confidence": 85, "reasoning": "same phone"}`))
	}))
	defer srv.Close()

	o := NewChatOracle(ChatConfig{BaseURL: srv.URL, APIKey: "secret", Model: "google/gemini-2.5-flash"})
	lost, found := pair()

	v, err := o.Assess(context.Background(), lost, found)
	require.NoError(t, err)
	assert.Equal(t, Verdict{Confidence: 85, Reasoning: "same phone"}, v)

	assert.Equal(t, "google/gemini-2.5-flash", got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.True(t, strings.Contains(got.Messages[0].Content, "Black iPhone"))
}

func TestChatOracle_FailuresAreErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"rate limited": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		},
		"garbage body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
		"no confidence": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(chatReply(`{"reasoning": "unsure"}`))
		},
	}
	lost, found := pair()
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			o := NewChatOracle(ChatConfig{BaseURL: srv.URL, Model: "m"})
			_, err := o.Assess(context.Background(), lost, found)
			assert.Error(t, err)
		})
	}
}

func TestChatOracle_RespectsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	o := NewChatOracle(ChatConfig{BaseURL: srv.URL, Model: "m"})
	lost, found := pair()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := o.Assess(ctx, lost, found)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestStatic(t *testing.T) {
	lost, found := pair()
	v, err := Static{Confidence: 120, Reasoning: "fixed"}.Assess(context.Background(), lost, found)
	require.NoError(t, err)
	assert.Equal(t, 100, v.Confidence)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Static{Confidence: 80}.Assess(ctx, lost, found)
	assert.ErrorIs(t, err, context.Canceled)
}
