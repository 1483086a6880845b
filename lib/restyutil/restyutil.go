// Package restyutil captures full request/response dumps from a resty
// client when debug logging is on. Tracing is handled separately by
// telemetry.InstrumentResty; this package only exists so a developer can
// read the exact bytes a portal sent back.
package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type DebugOutput interface {
	Write(id string, contents string)
}

// FilesystemOutput writes one file per exchange. The directory is wiped on
// startup so each process run starts from a clean slate.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) FilesystemOutput {
	os.RemoveAll(dir)
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		panic(err)
	}
	return FilesystemOutput{directory: dir}
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write exchange dump", "id", id, "err", err)
	}
}

// AttachDebugOutput dumps every completed exchange to the output while the
// default slog level includes debug. A nil output is a no-op.
func AttachDebugOutput(client *resty.Client, output DebugOutput) {
	if output == nil {
		return
	}

	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		ctx := res.Request.Context()
		if !slog.Default().Enabled(ctx, slog.LevelDebug) {
			return nil
		}
		id := strconv.FormatUint(atomic.AddUint64(&idcounter, 1), 10)
		output.Write(id, formatExchange(res))
		slog.DebugContext(
			ctx, "exchange dumped",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"exchange_id", id,
		)
		return nil
	})
}
