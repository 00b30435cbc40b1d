package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	geoarrow "github.com/tingold/orb-geoarrow"
)

var serveCmd = &cobra.Command{
	Use:   "serve <input>",
	Short: "Serve a geometry column over HTTP",
	Long: `Serve converts <input> once and serves it as /data.fgb (FlatGeobuf with
a spatial index) and /data.arrow (Arrow IPC stream). Any other path is
served from --static when set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newDataHandler(args[0], conf.GetString("from"), conf.GetString("static"))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return listen(ctx, conf.GetString("addr"), h)
	},
}

func init() {
	f := serveCmd.Flags()
	addFromFlag(f)
	f.String("addr", ":8080", "Address to listen on.")
	f.String("static", "", "Directory of static client files.")
}

// dataHandler serves one dataset in several encodings.
type dataHandler struct {
	fgb    []byte
	arrow  []byte
	static http.Handler
}

func newDataHandler(path, from, static string) (*dataHandler, error) {
	format, err := formatOf(path, from)
	if err != nil {
		return nil, err
	}
	ds, err := readDataset(path, format, geoarrow.Separated)
	if err != nil {
		return nil, err
	}
	if ds.arr.DataType().Metadata.CRS.IsZero() {
		md := ds.arr.DataType().Metadata
		md.CRS = geoarrow.EPSG(4326)
		ds.arr = ds.arr.WithMetadata(md)
	}

	var buf bytes.Buffer
	if err := writeDataset(&buf, formatFGB, ds, writeOptions{Index: true}); err != nil {
		return nil, err
	}
	stream, err := encodeArrowStream(ds.arr)
	if err != nil {
		return nil, err
	}
	log.Infow("loaded dataset", "path", path, "rows", ds.arr.Len(), "fgb_bytes", buf.Len(), "arrow_bytes", len(stream))

	h := &dataHandler{fgb: buf.Bytes(), arrow: stream}
	if static != "" {
		h.static = http.FileServer(http.Dir(static))
	}
	return h, nil
}

func (h *dataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/data.fgb":
		h.write(w, "application/octet-stream", h.fgb)
	case "/data.arrow":
		h.write(w, "application/vnd.apache.arrow.stream", h.arrow)
	default:
		if h.static == nil {
			http.NotFound(w, r)
			return
		}
		h.static.ServeHTTP(w, r)
	}
}

func (h *dataHandler) write(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if _, err := w.Write(data); err != nil {
		log.Debugw("write failed", "error", err)
	}
}

func listen(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
