package faceauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type comparerFunc func(ctx context.Context, reference, live string) (Result, error)

func (f comparerFunc) Compare(ctx context.Context, reference, live string) (Result, error) {
	return f(ctx, reference, live)
}

func fixed(res Result) Comparer {
	return comparerFunc(func(context.Context, string, string) (Result, error) {
		return res, nil
	})
}

func TestVerifier_Threshold(t *testing.T) {
	assert.Equal(t, DefaultAcceptConfidence, NewVerifier(nil, 0).Threshold())
	assert.Equal(t, DefaultAcceptConfidence, NewVerifier(nil, 1.5).Threshold())
	assert.Equal(t, 0.9, NewVerifier(nil, 0.9).Threshold())
}

func TestVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		res  Result
		want bool
	}{
		{"confident match", Result{Match: true, Confidence: 0.95}, true},
		{"at threshold", Result{Match: true, Confidence: 0.7}, true},
		{"low confidence", Result{Match: true, Confidence: 0.69}, false},
		{"no match", Result{Match: false, Confidence: 0.99}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := NewVerifier(fixed(tt.res), 0).Verify(ctx, "ref", "live")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestVerifier_Errors(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(fixed(Result{Match: true, Confidence: 1}), 0)

	_, err := v.Verify(ctx, "", "live")
	assert.ErrorIs(t, err, ErrNoReference)
	_, err = v.Verify(ctx, "ref", "")
	assert.ErrorIs(t, err, ErrNoLiveImage)

	boom := errors.New("boom")
	v = NewVerifier(comparerFunc(func(context.Context, string, string) (Result, error) {
		return Result{}, boom
	}), 0)
	ok, err := v.Verify(ctx, "ref", "live")
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestHTTPComparer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req compareRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Reference == req.Live {
			w.Write([]byte(`{"match": true, "confidence": 0.93}`))
			return
		}
		w.Write([]byte(`{"match": false, "confidence": 0.2}`))
	}))
	defer srv.Close()

	c := NewHTTPComparer(srv.URL, time.Second)
	res, err := c.Compare(context.Background(), "abc", "abc")
	require.NoError(t, err)
	assert.Equal(t, Result{Match: true, Confidence: 0.93}, res)

	res, err = c.Compare(context.Background(), "abc", "xyz")
	require.NoError(t, err)
	assert.False(t, res.Match)
}

func TestHTTPComparer_BadResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "model down"},
		{"not json", http.StatusOK, "<html>"},
		{"missing fields", http.StatusOK, `{"match": true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPComparer(srv.URL, time.Second).Compare(context.Background(), "a", "b")
			assert.Error(t, err)
		})
	}
}
