package cmd

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/scout/internal/blob"
	"github.com/joescharf/scout/internal/client"
	"github.com/joescharf/scout/internal/daemon"
	"github.com/joescharf/scout/internal/models"
	"github.com/joescharf/scout/internal/view"
)

var (
	fileOut   string
	fileChunk bool
	fileServe bool
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "List and download the reviewed documents",
}

var fileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the document set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fileListRun(cmd.Context())
	},
}

var fileGetCmd = &cobra.Command{
	Use:   "get <file-id>",
	Short: "Download a document through the gateway",
	Long: `Download a document through the gateway and write it to disk.

With --chunk the id is a citation (chunk) id, as shown in the Sources of
'scout result show'; the document containing it is fetched and the page
of the citation is reported. With --serve the document is kept in memory
and served on a local URL until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fileGetRun(cmd.Context(), args[0])
	},
}

func init() {
	fileGetCmd.Flags().StringVarP(&fileOut, "output", "o", "", "Output path (default: name from the gateway, or <id>.pdf)")
	fileGetCmd.Flags().BoolVar(&fileChunk, "chunk", false, "Treat the id as a chunk (citation) id")
	fileGetCmd.Flags().BoolVar(&fileServe, "serve", false, "Serve the document on a local URL instead of writing it")

	fileCmd.AddCommand(fileListCmd)
	fileCmd.AddCommand(fileGetCmd)
	rootCmd.AddCommand(fileCmd)
}

func fileListRun(ctx context.Context) error {
	c, err := newClient(nil)
	if err != nil {
		return err
	}

	var state view.ViewerState
	items, err := c.FetchReadItemsByAttribute(ctx, client.Filters{Model: models.ModelFile})
	if err == nil {
		var files []models.File
		if files, err = models.DecodeAll[models.File](items); err == nil {
			state, _ = view.ReduceViewer(state, view.FilesLoaded{Files: files})
		}
	}
	if err != nil {
		state, _ = view.ReduceViewer(state, view.FilesFailed{Err: err})
		ui.VerboseLog("%v", err)
		return errors.New(state.Error)
	}

	table := ui.Table([]string{"ID", "Name", "Type"})
	for _, f := range state.Files {
		if err := table.Append([]string{f.ID, f.DisplayName(), f.Type}); err != nil {
			return err
		}
	}
	return table.Render()
}

func fileGetRun(ctx context.Context, id string) error {
	blobs := blob.NewStore()
	c, err := newClient(blobs)
	if err != nil {
		return err
	}

	fileID, page := id, 1
	if fileChunk {
		if fileID, page, err = citationTarget(ctx, c, id); err != nil {
			return err
		}
	}

	state, _ := view.ReduceViewer(view.ViewerState{}, view.FileRequested{FileID: fileID, Page: page})
	// Every blob the viewer lets go of is revoked before returning.
	defer func() {
		_, revoke := view.ReduceViewer(state, view.Unmounted{})
		for _, ref := range revoke {
			blobs.Revoke(ref)
		}
	}()

	obj, err := c.FetchFile(ctx, fileID)
	if err != nil {
		state, _ = view.ReduceViewer(state, view.FileFailed{FileID: fileID, Err: err})
		ui.VerboseLog("%v", err)
		return errors.New(state.Error)
	}
	state, _ = view.ReduceViewer(state, view.FileLoaded{FileID: fileID, URL: obj.URL, ContentType: obj.ContentType})
	ui.VerboseLog("received %d bytes (%s)", obj.Size, obj.ContentType)

	if fileServe {
		return serveBlob(ctx, blobs, state)
	}

	path := fileOut
	if path == "" {
		path = downloadName(obj.Disposition, fileID)
	}
	if dryRun {
		ui.DryRunMsg("Would write %d bytes to %s", obj.Size, path)
		return nil
	}

	b, err := blobs.Get(state.URL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	ui.Success("Saved %s (%d bytes)", path, obj.Size)
	if fileChunk {
		ui.Info("Citation is on page %d", state.Page)
	}
	return nil
}

// citationTarget resolves a chunk id to its file id and page number.
func citationTarget(ctx context.Context, c *client.Client, chunkID string) (string, int, error) {
	item, err := c.FetchItem(ctx, models.ModelChunk, chunkID)
	if err != nil {
		return "", 0, err
	}
	chunk, err := models.Decode[models.Chunk](item)
	if err != nil {
		return "", 0, fmt.Errorf("decode chunk: %w", err)
	}
	if chunk.File == nil || chunk.File.ID == "" {
		return "", 0, fmt.Errorf("chunk %s has no file", chunkID)
	}
	return chunk.File.ID, chunk.PageNum, nil
}

// downloadName picks a safe local file name from a Content-Disposition header.
func downloadName(disposition, fileID string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := filepath.Base(params["filename"]); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return fileID + ".pdf"
}

// serveBlob serves the loaded document on a loopback URL until ctx ends or
// the process is interrupted.
func serveBlob(ctx context.Context, blobs *blob.Store, state view.ViewerState) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("GET /blob/{id}", blobs.Handler())
	srv := &http.Server{Handler: mux}

	ctx, stop := signal.NotifyContext(ctx, daemon.ShutdownSignals()...)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	url := fmt.Sprintf("http://%s/blob/%s#page=%d", ln.Addr(), strings.TrimPrefix(state.URL, blob.Scheme), state.Page)
	ui.Success("Serving %s", url)
	ui.Info("Press Ctrl-C to stop")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
