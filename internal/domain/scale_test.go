package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScale_Validate(t *testing.T) {
	tests := []struct {
		name    string
		scale   Scale
		wantErr bool
	}{
		{"defaults", Scale{From: DefaultSource, To: DefaultTarget}, false},
		{"zero new width", Scale{From: Resolution{2252, 2252}, To: Resolution{0, 2890}}, true},
		{"negative new height", Scale{From: Resolution{2252, 2252}, To: Resolution{3240, -1}}, true},
		{"zero old height", Scale{From: Resolution{2252, 0}, To: Resolution{3240, 2890}}, true},
		{"identity", Scale{From: Resolution{640, 480}, To: Resolution{640, 480}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scale.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrFatalInput)
			assert.ErrorIs(t, err, ErrInvalidScale)
			var fatal *FatalInputError
			assert.True(t, errors.As(err, &fatal))
		})
	}
}

func TestScale_Factors(t *testing.T) {
	sx, sy := Scale{From: Resolution{3, 4}, To: Resolution{2, 5}}.Factors()
	assert.Equal(t, 2.0/3.0, sx)
	assert.Equal(t, 1.25, sy)
}

func TestScale_String(t *testing.T) {
	assert.Equal(t, "2252x2252 -> 3240x2890", Scale{From: DefaultSource, To: DefaultTarget}.String())
}
