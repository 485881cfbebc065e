package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"entityemailer/internal/types"
)

// --- fakes ---

type fakeBuilder struct {
	requests []types.NotificationRequest
	traceIDs []string
	tokens   []types.SecretString
	errFor   map[int64]error
}

func (f *fakeBuilder) Build(ctx context.Context, req types.NotificationRequest, token types.SecretString) (*types.OutboundMessage, error) {
	f.requests = append(f.requests, req)
	f.traceIDs = append(f.traceIDs, types.GetRequestID(ctx))
	f.tokens = append(f.tokens, token)
	if err := f.errFor[req.FilingID]; err != nil {
		return nil, err
	}
	return &types.OutboundMessage{
		Recipients: []string{"contact@example.com"},
		RequestBy:  "BCRegistries@gov.bc.ca",
		Content:    types.MessageContent{Subject: "Notice of Articles", Attachments: []types.Attachment{}},
	}, nil
}

type fakePublisher struct {
	published []int64
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, filingID int64, _ *types.OutboundMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, filingID)
	return nil
}

type fakeTokens struct {
	err error
}

func (f fakeTokens) Token(context.Context) (types.SecretString, error) {
	if f.err != nil {
		return "", f.err
	}
	return "svc-token", nil
}

func newTestHandler(b *fakeBuilder, p *fakePublisher, tokens types.TokenSource) (*Handler, *bytes.Buffer) {
	var buf bytes.Buffer
	h := NewHandler(b, p, tokens, slog.New(slog.NewJSONHandler(&buf, nil)))
	h.newID = func() string { return "trace-fixed" }
	return h, &buf
}

func record(id, body string) events.SQSMessage {
	return events.SQSMessage{MessageId: id, Body: body}
}

func failedIDs(resp events.SQSEventResponse) []string {
	ids := make([]string, 0, len(resp.BatchItemFailures))
	for _, f := range resp.BatchItemFailures {
		ids = append(ids, f.ItemIdentifier)
	}
	return ids
}

// --- tests ---

func TestHandle_BuildsAndPublishes(t *testing.T) {
	b := &fakeBuilder{}
	p := &fakePublisher{}
	h, _ := newTestHandler(b, p, fakeTokens{})

	resp, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"email":{"filingId":42,"type":"incorporationApplication","option":"PAID"}}`),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("unexpected failures: %v", failedIDs(resp))
	}

	if len(b.requests) != 1 {
		t.Fatalf("builds = %d, want 1", len(b.requests))
	}
	req := b.requests[0]
	if req.FilingID != 42 || req.Type != types.FilingTypeIncorporationApplication || req.Option != types.FilingStatusPaid {
		t.Errorf("request = %+v", req)
	}
	if b.tokens[0] != "svc-token" {
		t.Errorf("token = %q", b.tokens[0].Unmask())
	}
	if b.traceIDs[0] != "trace-fixed" {
		t.Errorf("trace id = %q", b.traceIDs[0])
	}
	if len(p.published) != 1 || p.published[0] != 42 {
		t.Errorf("published = %v", p.published)
	}
}

func TestHandle_BuildsEnvelopeWithoutType(t *testing.T) {
	b := &fakeBuilder{}
	p := &fakePublisher{}
	h, _ := newTestHandler(b, p, fakeTokens{})

	resp, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"email":{"filingId":42,"option":"COMPLETED"}}`),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("unexpected failures: %v", failedIDs(resp))
	}
	if len(b.requests) != 1 || b.requests[0].Type != "" {
		t.Fatalf("requests = %+v, want one with empty type", b.requests)
	}
	if len(p.published) != 1 || p.published[0] != 42 {
		t.Errorf("published = %v", p.published)
	}
}

func TestHandle_AcknowledgesMalformedEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"email":`},
		{"missing email", `{"other":{}}`},
		{"zero filing id", `{"email":{"filingId":0,"type":"annualReport","option":"PAID"}}`},
		{"missing option", `{"email":{"filingId":5,"type":"annualReport"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBuilder{}
			h, logs := newTestHandler(b, &fakePublisher{}, fakeTokens{})

			resp, _ := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{record("m1", tt.body)}})
			if len(resp.BatchItemFailures) != 0 {
				t.Errorf("malformed envelope must be acknowledged, got failures %v", failedIDs(resp))
			}
			if len(b.requests) != 0 {
				t.Errorf("builder must not run, got %d calls", len(b.requests))
			}
			if !strings.Contains(logs.String(), `"level":"ERROR"`) {
				t.Errorf("expected an error log, got %s", logs.String())
			}
		})
	}
}

func TestHandle_ReportsFailuresPerRecord(t *testing.T) {
	b := &fakeBuilder{errFor: map[int64]error{
		2: types.NewAppError(types.ErrCodeNotFoundTemplate, "template BC-AR-COMPLETED.html not found", nil),
	}}
	p := &fakePublisher{}
	h, logs := newTestHandler(b, p, fakeTokens{})

	resp, _ := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"email":{"filingId":1,"type":"annualReport","option":"PAID"}}`),
		record("m2", `{"email":{"filingId":2,"type":"annualReport","option":"COMPLETED"}}`),
		record("m3", `{"email":{"filingId":3,"type":"changeOfAddress","option":"PAID"}}`),
	}})

	if got := failedIDs(resp); len(got) != 1 || got[0] != "m2" {
		t.Errorf("failures = %v, want [m2]", got)
	}
	if len(p.published) != 2 || p.published[0] != 1 || p.published[1] != 3 {
		t.Errorf("published = %v, want [1 3]", p.published)
	}
	if !strings.Contains(logs.String(), string(types.ErrCodeNotFoundTemplate)) {
		t.Errorf("failure log missing error code: %s", logs.String())
	}
}

func TestHandle_PublishFailureIsRetried(t *testing.T) {
	p := &fakePublisher{err: types.NewAppError(types.ErrCodeUpstreamQueue, "send failed", nil)}
	h, _ := newTestHandler(&fakeBuilder{}, p, fakeTokens{})

	resp, _ := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"email":{"filingId":1,"type":"annualReport","option":"PAID"}}`),
	}})
	if got := failedIDs(resp); len(got) != 1 || got[0] != "m1" {
		t.Errorf("failures = %v, want [m1]", got)
	}
}

func TestHandle_TokenFailureSkipsBuild(t *testing.T) {
	b := &fakeBuilder{}
	h, _ := newTestHandler(b, &fakePublisher{}, fakeTokens{err: errors.New("keycloak down")})

	resp, _ := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"email":{"filingId":1,"type":"annualReport","option":"PAID"}}`),
	}})
	if len(resp.BatchItemFailures) != 1 {
		t.Errorf("failures = %v, want one", failedIDs(resp))
	}
	if len(b.requests) != 0 {
		t.Error("builder must not run without a token")
	}
}
