package templates

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"entityemailer/internal/types"
)

func TestInline(t *testing.T) {
	store := NewFSStore(fstest.MapFS{
		"common/style.html":   {Data: []byte("<style>p{}</style>")},
		"common/footer.html":  {Data: []byte("<footer>[[contact.html]]</footer>")},
		"common/contact.html": {Data: []byte("BC Registries")},
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no markers",
			in:   "<p>{{.Business.legalName}}</p>",
			want: "<p>{{.Business.legalName}}</p>",
		},
		{
			name: "single marker",
			in:   "[[style.html]]<p>hi</p>",
			want: "<style>p{}</style><p>hi</p>",
		},
		{
			name: "nested and repeated",
			in:   "[[footer.html]]|[[footer.html]]",
			want: "<footer>BC Registries</footer>|<footer>BC Registries</footer>",
		},
		{
			name: "template actions untouched",
			in:   "[[contact.html]] {{.FilingDateTime}}",
			want: "BC Registries {{.FilingDateTime}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Inline(context.Background(), store, tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Inline() = %q, want %q", got, tt.want)
			}

			again, err := Inline(context.Background(), store, got)
			if err != nil {
				t.Fatalf("second pass: %v", err)
			}
			if again != got {
				t.Errorf("second pass changed output: %q", again)
			}
		})
	}
}

func TestInline_MissingFragment(t *testing.T) {
	store := NewFSStore(fstest.MapFS{})
	_, err := Inline(context.Background(), store, "[[nope.html]]")
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestInline_SelfReferenceIsBounded(t *testing.T) {
	store := NewFSStore(fstest.MapFS{
		"common/loop.html": {Data: []byte("x[[loop.html]]")},
	})
	_, err := Inline(context.Background(), store, "[[loop.html]]")
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeInternalTemplate {
		t.Fatalf("expected %s, got %v", types.ErrCodeInternalTemplate, err)
	}
}
