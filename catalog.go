package coloring

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeana-hines/coloring-app-aws/utils"
)

// ParseCatalog splits a newline-delimited list of artwork identifiers,
// trimming each line and dropping the empty ones.
func ParseCatalog(r io.Reader) ([]string, error) {
	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListArtworks reads the catalog from a URL or a local file.
func ListArtworks(ctx context.Context, src string, client *http.Client) ([]string, error) {
	data, err := utils.FetchText(ctx, client, src)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(strings.NewReader(string(data)))
}

// DisplayLabel turns an artwork file name into a human readable label.
func DisplayLabel(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ReplaceAll(name, "_", " ")
}

// CatalogRoute is the path the catalog endpoint is mounted on.
const CatalogRoute = "/coloringapp3/api/coloring-images"

// CatalogHandler serves the JSON array of the PNG file names found in dir.
// A nil logger means slog.Default.
func CatalogHandler(dir string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		names, err := listPNG(dir)
		if err != nil {
			logger.Error("could not list the artworks", "dir", dir, "error", err)
			http.Error(w, "Error reading images", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(names); err != nil {
			logger.Warn("could not write the artwork list", "remote", r.RemoteAddr, "error", err)
		}
	})
}

func listPNG(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
