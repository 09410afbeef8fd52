package manifest

import (
	"fmt"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/checksum"
	"github.com/starford/altair/internal/models"
	"github.com/starford/altair/internal/storage"
)

// VerifyCatalogs checks that every catalog file the manifest references is
// present and still matches its recorded checksum. A stale reference means
// the workspace was modified since compilation; simulating against it would
// silently use the wrong field.
func VerifyCatalogs(ws *storage.Workspace, m models.ExposureManifest) error {
	for _, group := range m.Catalogs {
		for _, ref := range group.Files {
			data, err := ws.Read(ref.Path)
			if err != nil {
				return fmt.Errorf("%w: exposure %s references unreadable catalog %s: %v",
					apperr.ErrMissingCatalog, m.Exposure.ID, ref.Path, err)
			}
			if sum := checksum.Sum(data); sum != ref.SHA256 {
				return fmt.Errorf("%w: exposure %s: catalog %s changed since compilation",
					apperr.ErrMissingCatalog, m.Exposure.ID, ref.Path)
			}
		}
	}
	return nil
}
