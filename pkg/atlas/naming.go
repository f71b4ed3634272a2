package atlas

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	manualROIToken     = "manualROI-"
	registrationPrefix = "Slices_for_ARA_registration"
)

var (
	// ErrNoRegistrationFolder indicates that no registered slices folder exists.
	ErrNoRegistrationFolder = errors.New("no registration folder found")

	// ErrMultipleRegistrationFolders indicates more than one candidate registration folder.
	ErrMultipleRegistrationFolders = errors.New("more than one potential registration folder")

	// ErrAmbiguousName indicates an output file name with several ROI tokens.
	ErrAmbiguousName = errors.New("file name contains more than one manualROI- token")
)

// SliceName names slice n of a file
func SliceName(core string, n int) string {
	return fmt.Sprintf("%s_slice-%d", core, n)
}

// SliceNumber parses the slice number at the end of a slice name
func SliceNumber(name string) (int, error) {
	i := strings.LastIndex(name, "-")
	n, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return 0, fmt.Errorf("no slice number in %q: %w", name, err)
	}
	return n, nil
}

// ManualROIName names an ROI drawn on a slice
func ManualROIName(slice, roi string) string {
	return slice + "_" + manualROIToken + roi
}

// TileFileName names the image of one channel of one tile, without extension
func TileFileName(manualROI string, id, channel int) string {
	return fmt.Sprintf("%s_squareROI-%d_channel-%d", manualROI, id, channel)
}

// CoreNames returns the distinct ROI names (everything up to and including
// the manualROI- token) of the files that belong to core. Files of core
// without the token are ignored.
func CoreNames(fileNames []string, core string) ([]string, error) {
	set := make(map[string]struct{})
	for _, name := range fileNames {
		if !strings.Contains(name, core) {
			continue
		}
		pieces := strings.Split(name, "_")
		at := -1
		for i, p := range pieces {
			if !strings.Contains(p, manualROIToken) {
				continue
			}
			if at >= 0 {
				return nil, fmt.Errorf("%s: %w", name, ErrAmbiguousName)
			}
			at = i
		}
		if at < 0 {
			continue
		}
		set[strings.Join(pieces[:at+1], "_")] = struct{}{}
	}

	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// RegistrationFolderName names the folder of slices saved for atlas
// registration at the given resolution in micrometres per pixel.
func RegistrationFolderName(channel int, resolution float64) string {
	res := strconv.FormatFloat(resolution, 'f', -1, 64)
	if !strings.Contains(res, ".") {
		res += ".0"
	}
	return fmt.Sprintf("%s_channel-%d_%s-umpx", registrationPrefix, channel, res)
}

// FolderResolution parses the resolution out of a registration folder name
func FolderResolution(folder string) (float64, error) {
	base := filepath.Base(folder)
	last := base[strings.LastIndex(base, "_")+1:]
	res, err := strconv.ParseFloat(strings.SplitN(last, "-", 2)[0], 64)
	if err != nil {
		return 0, fmt.Errorf("no resolution in folder name %q: %w", base, err)
	}
	return res, nil
}

// FindRegistrationFolder locates the registered slices folder inside dir and
// returns its path and resolution.
func FindRegistrationFolder(dir string) (string, float64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("error reading registration directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), registrationPrefix) {
			candidates = append(candidates, e.Name())
		}
	}
	switch len(candidates) {
	case 0:
		return "", 0, fmt.Errorf("%s: %w", dir, ErrNoRegistrationFolder)
	case 1:
	default:
		return "", 0, fmt.Errorf("%s: %w: %s", dir, ErrMultipleRegistrationFolders, strings.Join(candidates, ", "))
	}

	res, err := FolderResolution(candidates[0])
	if err != nil {
		return "", 0, err
	}
	return filepath.Join(dir, candidates[0]), res, nil
}

// RegionsFile is the path of the region outlines saved for a registered slice
func RegionsFile(folder, slice string) string {
	return filepath.Join(folder, slice+".regions.yaml")
}
