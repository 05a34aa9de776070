package workqueue

import (
	"fmt"

	"go.uber.org/zap"
)

func zapPanic(r any) []zap.Field {
	return []zap.Field{zap.String("panic", fmt.Sprint(r)), zap.Stack("stack")}
}
