package health

import (
	"context"
	goerrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/NAKUL-XD/BitChat/data/store"
	"github.com/NAKUL-XD/BitChat/internal/configure"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/NAKUL-XD/BitChat/internal/testutil"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	config := &configure.Config{}
	config.Health.Enabled = true
	config.Health.Bind = "127.0.1.1:3000"

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))

	mem := store.NewMemory()
	gCtx.Inst().Store = mem

	done := New(gCtx)

	time.Sleep(time.Millisecond * 50)

	resp, err := http.DefaultClient.Get("http://127.0.1.1:3000")
	testutil.IsNil(t, err, "No error")
	_ = resp.Body.Close()
	testutil.Assert(t, http.StatusOK, resp.StatusCode, "response code")

	mem.SetFail(goerrors.New("down"))

	resp, err = http.DefaultClient.Get("http://127.0.1.1:3000")
	testutil.IsNil(t, err, "No error")
	_ = resp.Body.Close()
	testutil.Assert(t, http.StatusInternalServerError, resp.StatusCode, "store down")

	cancel()

	<-done
}
