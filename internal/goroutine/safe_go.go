package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/lostfound-backend/internal/logger"
)

// PanicHandler получает значение panic и стек упавшей горутины.
type PanicHandler func(name string, value any, stack []byte)

// RecoveryHandler запускает горутины, которые не роняют процесс при panic.
type RecoveryHandler struct {
	onPanic PanicHandler
}

func NewRecoveryHandler(onPanic PanicHandler) *RecoveryHandler {
	return &RecoveryHandler{onPanic: onPanic}
}

// Go запускает fn. name попадает в лог, если fn упадёт.
func (rh *RecoveryHandler) Go(name string, fn func()) {
	go func() {
		defer rh.recover(name)
		fn()
	}()
}

// GoWithContext то же, что Go, но передаёт ctx в fn.
func (rh *RecoveryHandler) GoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer rh.recover(name)
		fn(ctx)
	}()
}

func (rh *RecoveryHandler) recover(name string) {
	if r := recover(); r != nil {
		rh.onPanic(name, r, debug.Stack())
	}
}

func logPanic(name string, value any, stack []byte) {
	logger.Log.WithFields(logrus.Fields{
		"goroutine": name,
		"panic":     value,
		"stack":     string(stack),
	}).Error("goroutine: перехвачена panic")
}

var DefaultRecoveryHandler = NewRecoveryHandler(logPanic)

// SafeGo запускает fn через DefaultRecoveryHandler.
func SafeGo(fn func()) {
	DefaultRecoveryHandler.Go("", fn)
}

// SafeGoWithContext запускает fn с ctx через DefaultRecoveryHandler.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.GoWithContext(ctx, "", fn)
}
