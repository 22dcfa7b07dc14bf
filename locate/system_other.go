//go:build !darwin

package locate

import "context"

var systemLocate func(ctx context.Context, name string) string
