package preprocess

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/metrovan/isochrone/internal/models"
)

// artifact file names within an ARTIFACT_DIR (§10 Configuration).
const (
	networkEdgesFile  = "network_edges.gob"
	transferEdgesFile = "transfer_edges.gob"
	stopsFile         = "stops.gob"
	shapesFile        = "shapes.gob"
)

// Save persists the four artifacts as separate gob files under dir,
// keeping each as its own opaque on-disk structure per §6 "Persisted
// artifacts".
func Save(dir string, a *models.Artifacts) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create artifact dir: %v", models.ErrIOError, err)
	}
	if err := saveGob(filepath.Join(dir, networkEdgesFile), a.NetworkEdges); err != nil {
		return err
	}
	if err := saveGob(filepath.Join(dir, transferEdgesFile), a.TransferEdges); err != nil {
		return err
	}
	if err := saveGob(filepath.Join(dir, stopsFile), a.Stops); err != nil {
		return err
	}
	if err := saveGob(filepath.Join(dir, shapesFile), a.Shapes); err != nil {
		return err
	}
	return saveGob(filepath.Join(dir, "service_id.gob"), a.ServiceID)
}

// Load reads back the artifacts persisted by Save. Missing files are
// IOError-fatal per §7.
func Load(dir string) (*models.Artifacts, error) {
	a := &models.Artifacts{}

	if err := loadGob(filepath.Join(dir, networkEdgesFile), &a.NetworkEdges); err != nil {
		return nil, err
	}
	if err := loadGob(filepath.Join(dir, transferEdgesFile), &a.TransferEdges); err != nil {
		return nil, err
	}
	if err := loadGob(filepath.Join(dir, stopsFile), &a.Stops); err != nil {
		return nil, err
	}
	if err := loadGob(filepath.Join(dir, shapesFile), &a.Shapes); err != nil {
		return nil, err
	}
	if err := loadGob(filepath.Join(dir, "service_id.gob"), &a.ServiceID); err != nil {
		return nil, err
	}
	return a, nil
}

func saveGob(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", models.ErrIOError, path, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("%w: encode %s: %v", models.ErrIOError, path, err)
	}
	return nil
}

func loadGob(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", models.ErrIOError, path, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", models.ErrIOError, path, err)
	}
	return nil
}
