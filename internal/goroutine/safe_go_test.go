package goroutine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recoveredPanic struct {
	name  string
	value any
	stack []byte
}

func TestGo_RecoversPanic(t *testing.T) {
	got := make(chan recoveredPanic, 1)
	rh := NewRecoveryHandler(func(name string, value any, stack []byte) {
		got <- recoveredPanic{name, value, stack}
	})

	rh.Go("relay", func() { panic("boom") })

	select {
	case p := <-got:
		assert.Equal(t, "relay", p.name)
		assert.Equal(t, "boom", p.value)
		assert.NotEmpty(t, p.stack)
	case <-time.After(time.Second):
		t.Fatal("panic не перехвачена")
	}
}

func TestGoWithContext_PassesContext(t *testing.T) {
	rh := NewRecoveryHandler(func(string, any, []byte) {})
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	got := make(chan any, 1)
	rh.GoWithContext(ctx, "ctx", func(ctx context.Context) { got <- ctx.Value(key{}) })

	select {
	case v := <-got:
		assert.Equal(t, "v", v)
	case <-time.After(time.Second):
		t.Fatal("функция не вызвана")
	}
}

func TestSafeGo_DefaultHandlerSurvivesPanic(t *testing.T) {
	done := make(chan struct{})
	SafeGo(func() {
		defer close(done)
		panic("не должна уронить тест")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("горутина не завершилась")
	}
}
