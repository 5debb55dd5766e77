package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/modules/model"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	owner := &model.Principal{User: &model.User{ID: uuid.New()}}
	stranger := &model.Principal{User: &model.User{ID: uuid.New()}}
	anonymous := model.Anonymous()

	tests := []struct {
		name    string
		p       *model.Principal
		owns    bool
		public  bool
		op      Operation
		wantErr error
	}{
		{"nil principal read", nil, false, true, OpRead, ErrForbidden},
		{"nil principal write", nil, true, true, OpWrite, ErrForbidden},

		{"owner reads private", owner, true, false, OpRead, nil},
		{"owner writes private", owner, true, false, OpWrite, nil},
		{"owner reads public", owner, true, true, OpRead, nil},
		{"owner writes public", owner, true, true, OpWrite, nil},

		// A private project must stay invisible to everyone else.
		{"stranger reads private", stranger, false, false, OpRead, ErrNotFound},
		{"stranger writes private", stranger, false, false, OpWrite, ErrNotFound},
		{"anonymous reads private", anonymous, false, false, OpRead, ErrNotFound},
		{"anonymous writes private", anonymous, false, false, OpWrite, ErrNotFound},

		{"stranger reads public", stranger, false, true, OpRead, nil},
		{"anonymous reads public", anonymous, false, true, OpRead, nil},

		// Writes to a visible project are refused, not hidden.
		{"stranger writes public", stranger, false, true, OpWrite, ErrForbidden},
		{"anonymous writes public", anonymous, false, true, OpWrite, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.p, tt.owns, tt.public, tt.op)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
