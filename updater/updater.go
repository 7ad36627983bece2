// Package updater builds, verifies, and stages distributable index
// packages: a zip holding app.db plus metadata.json, a sibling .sha256
// checksum file, and the index_version.txt marker next to the live data.
package updater

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PackageFormat identifies the index package layout.
const PackageFormat = "app-db"

// Metadata is the metadata.json inside an index package.
type Metadata struct {
	Version       string `json:"version"`
	Format        string `json:"format"`
	SchemaVersion int    `json:"schema_version"`
}

// ErrPackage marks an invalid or corrupt index package.
var ErrPackage = errors.New("updater: invalid index package")

// BuildPackage zips dbPath and metadata into
// <outDir>/index-v<version>.zip and writes the sibling .sha256 file.
// Returns the zip path.
func BuildPackage(dbPath, version string, schemaVersion int, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	zipName := fmt.Sprintf("index-v%s.zip", version)
	zipPath := filepath.Join(outDir, zipName)

	out, err := os.Create(zipPath)
	if err != nil {
		return "", err
	}
	zw := zip.NewWriter(out)

	// app.db
	db, err := os.Open(dbPath)
	if err != nil {
		zw.Close()
		out.Close()
		return "", fmt.Errorf("opening database: %w", err)
	}
	w, err := zw.Create("app.db")
	if err == nil {
		_, err = io.Copy(w, db)
	}
	db.Close()
	if err != nil {
		zw.Close()
		out.Close()
		return "", fmt.Errorf("writing app.db: %w", err)
	}

	// metadata.json
	meta := Metadata{Version: version, Format: PackageFormat, SchemaVersion: schemaVersion}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		zw.Close()
		out.Close()
		return "", err
	}
	w, err = zw.Create("metadata.json")
	if err == nil {
		_, err = w.Write(metaBytes)
	}
	if err != nil {
		zw.Close()
		out.Close()
		return "", fmt.Errorf("writing metadata: %w", err)
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	if err := writeChecksum(zipPath); err != nil {
		return "", err
	}

	return zipPath, nil
}

// writeChecksum writes "<hex>  <filename>\n" next to the zip.
func writeChecksum(zipPath string) error {
	sum, err := fileSHA256(zipPath)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(zipPath))
	return os.WriteFile(zipPath+".sha256", []byte(line), 0644)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyPackage checks a package against its sibling .sha256 file (when
// present) and its contents: app.db and a well-formed metadata.json with
// the expected format. Returns the parsed metadata.
func VerifyPackage(zipPath string) (*Metadata, error) {
	if sumBytes, err := os.ReadFile(zipPath + ".sha256"); err == nil {
		fields := strings.Fields(string(sumBytes))
		if len(fields) < 1 {
			return nil, fmt.Errorf("%w: malformed checksum file", ErrPackage)
		}
		actual, err := fileSHA256(zipPath)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(fields[0], actual) {
			return nil, fmt.Errorf("%w: checksum mismatch", ErrPackage)
		}
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackage, err)
	}
	defer zr.Close()

	var meta *Metadata
	hasDB := false
	for _, f := range zr.File {
		// No path traversal.
		if strings.HasPrefix(f.Name, "/") || strings.Contains(f.Name, "..") {
			return nil, fmt.Errorf("%w: invalid path %q", ErrPackage, f.Name)
		}
		switch f.Name {
		case "app.db":
			hasDB = true
		case "metadata.json":
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPackage, err)
			}
			var m Metadata
			err = json.NewDecoder(rc).Decode(&m)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: bad metadata.json: %v", ErrPackage, err)
			}
			meta = &m
		}
	}

	if !hasDB {
		return nil, fmt.Errorf("%w: missing app.db", ErrPackage)
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: missing metadata.json", ErrPackage)
	}
	if meta.Format != PackageFormat {
		return nil, fmt.Errorf("%w: unexpected format %q", ErrPackage, meta.Format)
	}

	return meta, nil
}

// ReadIndexVersion reads data/index_version.txt; missing file means "0.0.0".
func ReadIndexVersion(dataDir string) string {
	b, err := os.ReadFile(filepath.Join(dataDir, "index_version.txt"))
	if err != nil {
		return "0.0.0"
	}
	return strings.TrimSpace(string(b))
}

// WriteIndexVersion records the applied index version.
func WriteIndexVersion(dataDir, version string) error {
	return os.WriteFile(filepath.Join(dataDir, "index_version.txt"),
		[]byte(version+"\n"), 0644)
}

// StagePackage verifies a package and extracts it into
// <dataDir>/pending_update/ for later application. Returns the metadata.
func StagePackage(zipPath, dataDir string) (*Metadata, error) {
	meta, err := VerifyPackage(zipPath)
	if err != nil {
		return nil, err
	}

	stagingDir := filepath.Join(dataDir, "pending_update")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackage, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		dest := filepath.Join(stagingDir, filepath.Base(f.Name))
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		out, err := os.Create(dest)
		if err != nil {
			rc.Close()
			return nil, err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return nil, err
		}
	}

	return meta, nil
}

// ApplyStaged swaps the staged app.db into place and records the version.
// The staging directory is removed on success.
func ApplyStaged(dataDir string) (*Metadata, error) {
	stagingDir := filepath.Join(dataDir, "pending_update")

	metaBytes, err := os.ReadFile(filepath.Join(stagingDir, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: no staged update", ErrPackage)
	}
	var meta Metadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("%w: bad staged metadata: %v", ErrPackage, err)
	}

	stagedDB := filepath.Join(stagingDir, "app.db")
	if _, err := os.Stat(stagedDB); err != nil {
		return nil, fmt.Errorf("%w: no staged app.db", ErrPackage)
	}

	liveDB := filepath.Join(dataDir, "app.db")
	if err := os.Rename(stagedDB, liveDB); err != nil {
		return nil, fmt.Errorf("swapping database: %w", err)
	}

	if err := WriteIndexVersion(dataDir, meta.Version); err != nil {
		return nil, err
	}

	if err := os.RemoveAll(stagingDir); err != nil {
		return nil, err
	}
	return &meta, nil
}
