package errors_test

import (
	"fmt"
	"testing"

	"github.com/tensorcheck/tensorcheck/errors"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *errors.Config
		want string
	}{
		{
			name: "with field",
			err:  errors.NewConfig(errors.ErrShapeRange, "min rank 3 exceeds max rank 2", "rank"),
			want: "[shape-range] min rank 3 exceeds max rank 2 (field: rank)",
		},
		{
			name: "without field",
			err:  errors.NewConfig(errors.ErrDTypeEmpty, "no dtypes remain after filtering", ""),
			want: "[dtype-empty] no dtypes remain after filtering",
		},
		{
			name: "formatted",
			err:  errors.NewConfigf(errors.ErrElementRange, "elements", "min %v exceeds max %v", 2.0, 1.0),
			want: "[element-range] min 2 exceeds max 1 (field: elements)",
		},
		{
			name: "nil",
			err:  nil,
			want: "config <nil>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	err := errors.NewConfig(errors.ErrElementUnique, "bool domain has 2 values, need 5", "unique")
	if got := errors.CodeOf(err); got != errors.ErrElementUnique {
		t.Errorf("CodeOf() = %q, want %q", got, errors.ErrElementUnique)
	}

	wrapped := fmt.Errorf("draw tensor: %w", err)
	if got := errors.CodeOf(wrapped); got != errors.ErrElementUnique {
		t.Errorf("CodeOf(wrapped) = %q, want %q", got, errors.ErrElementUnique)
	}

	if got := errors.CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
	if got := errors.CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
}

func TestIsCode(t *testing.T) {
	err := errors.NewConfig(errors.ErrDevicePoolEmpty, "no devices to sample from", "devices")
	if !errors.IsCode(err, errors.ErrDevicePoolEmpty) {
		t.Error("IsCode() = false, want true")
	}
	if errors.IsCode(err, errors.ErrDeviceMeta) {
		t.Error("IsCode() with wrong code = true, want false")
	}
}
