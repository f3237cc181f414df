package invctx

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-function-invoker/pkg/core"
	intctx "github.com/jdziat/simple-function-invoker/pkg/internal/context"
)

func TestInvocationFromContext_NotInHandler(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, InvocationFromContext(ctx))
	assert.Equal(t, "", InvocationIDFromContext(ctx))
	assert.Equal(t, int64(0), SeqFromContext(ctx))

	module, function := HandlerFromContext(ctx)
	assert.Empty(t, module)
	assert.Empty(t, function)
	assert.Equal(t, os.Stdout, Output(ctx))
}

func TestInvocationFromContext_InHandler(t *testing.T) {
	var out bytes.Buffer
	inv := &core.Invocation{ID: "inv-1", Seq: 3}
	ctx := intctx.WithInvocationContext(context.Background(), &intctx.InvocationContext{
		Invocation: inv,
		Module:     "echo",
		Function:   "uppercase",
		Output:     &out,
	})

	assert.Same(t, inv, InvocationFromContext(ctx))
	assert.Equal(t, "inv-1", InvocationIDFromContext(ctx))
	assert.Equal(t, int64(3), SeqFromContext(ctx))

	module, function := HandlerFromContext(ctx)
	assert.Equal(t, "echo", module)
	assert.Equal(t, "uppercase", function)

	require.NoError(t, Println(ctx, "HELLO"))
	assert.Equal(t, "HELLO\n", out.String())
}

func TestOutput_NilWriterFallsBack(t *testing.T) {
	ctx := intctx.WithInvocationContext(context.Background(), &intctx.InvocationContext{})
	assert.Equal(t, os.Stdout, Output(ctx))
}
