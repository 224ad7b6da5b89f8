package faceauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/repcoach/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultAcceptConfidence is the lowest comparer confidence accepted as a login.
const DefaultAcceptConfidence = 0.7

var (
	ErrNoReference = errors.New("no reference image")
	ErrNoLiveImage = errors.New("no live image")
)

type Result struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
}

// Comparer decides whether two face images show the same person.
// Images are base64 encoded JPEG or PNG data.
type Comparer interface {
	Compare(ctx context.Context, reference, live string) (Result, error)
}

type Verifier struct {
	comparer  Comparer
	threshold float64
}

func NewVerifier(comparer Comparer, threshold float64) *Verifier {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultAcceptConfidence
	}
	return &Verifier{
		comparer:  comparer,
		threshold: threshold,
	}
}

func (v *Verifier) Threshold() float64 {
	return v.threshold
}

// Verify returns true only when the comparer reports a match with enough confidence.
func (v *Verifier) Verify(ctx context.Context, reference, live string) (ok bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "faceauth.verify")
	defer func() {
		span.SetAttributes(attribute.Bool("face.accepted", ok))
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if reference == "" {
		return false, ErrNoReference
	}
	if live == "" {
		return false, ErrNoLiveImage
	}

	res, err := v.comparer.Compare(ctx, reference, live)
	if err != nil {
		return false, fmt.Errorf("compare faces: %w", err)
	}

	log.Debugf("face compare: match=%t confidence=%.2f threshold=%.2f", res.Match, res.Confidence, v.threshold)
	return res.Match && res.Confidence >= v.threshold, nil
}
