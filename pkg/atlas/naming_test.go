package atlas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	slice := SliceName("AL1_brain", 4)
	assert.Equal(t, "AL1_brain_slice-4", slice)

	n, err := SliceNumber(slice)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = SliceNumber("AL1_brain")
	assert.Error(t, err)

	roi := ManualROIName(slice, "striatum")
	assert.Equal(t, "AL1_brain_slice-4_manualROI-striatum", roi)
	assert.Equal(t, "AL1_brain_slice-4_manualROI-striatum_squareROI-12_channel-2", TileFileName(roi, 12, 2))
}

func TestCoreNames(t *testing.T) {
	files := []string{
		"AL1_brain_slice-4_manualROI-striatum_squareROI-1_channel-1.tif",
		"AL1_brain_slice-4_manualROI-striatum_squareROI-2_channel-1.tif",
		"AL1_brain_slice-6_manualROI-L-CPu_squareROI-1_channel-1.tif",
		"000_ManualROIs_info",
		"AL1_brain_notes.txt",
		"AL2_brain_slice-1_manualROI-x_squareROI-1_channel-1.tif",
	}

	names, err := CoreNames(files, "AL1_brain")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"AL1_brain_slice-4_manualROI-striatum",
		"AL1_brain_slice-6_manualROI-L-CPu",
	}, names)

	_, err = CoreNames([]string{"AL1_brain_manualROI-a_manualROI-b.tif"}, "AL1_brain")
	assert.ErrorIs(t, err, ErrAmbiguousName)
}

func TestRegistrationFolderName(t *testing.T) {
	assert.Equal(t, "Slices_for_ARA_registration_channel-1_25.0-umpx", RegistrationFolderName(1, 25))
	assert.Equal(t, "Slices_for_ARA_registration_channel-2_12.5-umpx", RegistrationFolderName(2, 12.5))

	res, err := FolderResolution(RegistrationFolderName(2, 12.5))
	require.NoError(t, err)
	assert.Equal(t, 12.5, res)

	_, err = FolderResolution("Slices_for_ARA_registration")
	assert.Error(t, err)
}

func TestFindRegistrationFolder(t *testing.T) {
	dir := t.TempDir()
	_, _, err := FindRegistrationFolder(dir)
	assert.ErrorIs(t, err, ErrNoRegistrationFolder)

	want := filepath.Join(dir, RegistrationFolderName(1, 25))
	require.NoError(t, os.Mkdir(want, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Slices_for_ARA_registration.txt"), nil, 0644))

	folder, res, err := FindRegistrationFolder(dir)
	require.NoError(t, err)
	assert.Equal(t, want, folder)
	assert.Equal(t, 25.0, res)
	assert.Equal(t, filepath.Join(want, "AL1_slice-2.regions.yaml"), RegionsFile(folder, "AL1_slice-2"))

	require.NoError(t, os.Mkdir(filepath.Join(dir, RegistrationFolderName(2, 10)), 0755))
	_, _, err = FindRegistrationFolder(dir)
	assert.ErrorIs(t, err, ErrMultipleRegistrationFolders)

	_, _, err = FindRegistrationFolder(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
