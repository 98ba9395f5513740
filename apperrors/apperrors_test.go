package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"access denied", AccessDenied("not a member"), CodeAccessDenied},
		{"persistence", Persistence("insert failed", errors.New("conn reset")), CodePersistence},
		{"not found", NotFound("no such message"), CodeNotFound},
		{"wrapped once more", fmt.Errorf("publish: %w", Persistence("insert failed", nil)), CodePersistence},
		{"plain error", errors.New("boom"), CodeUnknown},
		{"nil cause unwrap", Invalid("bad body"), CodeInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CodeOf(tc.err))
		})
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Persistence("receipt insert", cause)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 403, HTTPStatus(AccessDenied("nope")))
	assert.Equal(t, 500, HTTPStatus(Persistence("write", nil)))
	assert.Equal(t, 404, HTTPStatus(NotFound("gone")))
	assert.Equal(t, 400, HTTPStatus(Invalid("bad")))
	assert.Equal(t, 500, HTTPStatus(errors.New("anything")))
}
