package commands

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

const previewContextLines = 3

// PatchPreview describes what PatchAndHash would write for a tree.
type PatchPreview struct {
	Record  entities.PatchRecord
	Changed bool   // the patch on disk differs from the regenerated one
	Diff    string // unified diff from the recorded patch to the regenerated one
}

// PatchGenerator turns the modifications of a source tree into the version's
// patch file and records its integrity in source.json.
type PatchGenerator struct {
	settings    *entities.Settings
	registry    repositories.RegistryRepository
	workingTree repositories.WorkingTreeRepository
}

// NewPatchGenerator creates a PatchGenerator.
func NewPatchGenerator(
	settings *entities.Settings,
	registry repositories.RegistryRepository,
	workingTree repositories.WorkingTreeRepository,
) *PatchGenerator {
	return &PatchGenerator{
		settings:    settings,
		registry:    registry,
		workingTree: workingTree,
	}
}

// PatchAndHash stages every change of the tree, writes the staged diff as the
// version's only patch, replaces the patches map of source.json with that
// patch and its integrity, drops patch files it no longer lists, and copies
// the tree's build manifest into the version folder. The writes are not atomic as a group; rerunning on
// the same tree produces the same bytes and repairs a partial run.
func (it *PatchGenerator) PatchAndHash(ctx context.Context, tree entities.SourceTree) (entities.PatchRecord, error) {
	version := tree.Version

	desc, err := it.registry.ReadSource(ctx, version)
	if err != nil {
		return entities.PatchRecord{}, err
	}

	if stageErr := it.workingTree.AddAll(ctx, tree.Path); stageErr != nil {
		return entities.PatchRecord{}, fmt.Errorf("failed to stage changes: %w", stageErr)
	}
	diff, err := it.workingTree.DiffCached(ctx, tree.Path)
	if err != nil {
		return entities.PatchRecord{}, fmt.Errorf("failed to diff staged changes: %w", err)
	}

	name := desc.PatchName()
	record := entities.PatchRecord{
		Name: name,
		Path: version.PatchPath(name),
		Size: len(diff),
	}

	previous := desc.Patches
	if len(diff) == 0 {
		logger.Warnf("[%s] Tree matches upstream, removing patch %s", version, name)
		if removeErr := it.registry.Remove(ctx, record.Path); removeErr != nil {
			return entities.PatchRecord{}, fmt.Errorf("failed to remove %s: %w", record.Path, removeErr)
		}
		desc.Patches = map[string]string{}
	} else {
		if writeErr := it.registry.WriteFile(ctx, record.Path, diff); writeErr != nil {
			return entities.PatchRecord{}, fmt.Errorf("failed to write %s: %w", record.Path, writeErr)
		}
		record.Integrity = entities.Integrity(diff)
		desc.Patches = map[string]string{name: record.Integrity}
	}

	if writeErr := it.registry.WriteSource(ctx, version, desc); writeErr != nil {
		return entities.PatchRecord{}, fmt.Errorf("failed to update source descriptor: %w", writeErr)
	}

	if removeErr := it.removeSuperseded(ctx, version, previous, name); removeErr != nil {
		return entities.PatchRecord{}, removeErr
	}

	if copyErr := it.copyManifest(ctx, tree); copyErr != nil {
		return entities.PatchRecord{}, copyErr
	}

	logger.Infof("[%s] Wrote %s (%d bytes, %s)", version, name, record.Size, record.Integrity)
	return record, nil
}

// Preview regenerates the patch without staging anything or writing to the
// registry and compares it with the patch currently on disk.
func (it *PatchGenerator) Preview(ctx context.Context, tree entities.SourceTree) (PatchPreview, error) {
	version := tree.Version

	desc, err := it.registry.ReadSource(ctx, version)
	if err != nil {
		return PatchPreview{}, err
	}

	diff, err := it.workingTree.PreviewDiff(ctx, tree.Path)
	if err != nil {
		return PatchPreview{}, fmt.Errorf("failed to preview diff: %w", err)
	}

	name := desc.PatchName()
	preview := PatchPreview{
		Record: entities.PatchRecord{
			Name: name,
			Path: version.PatchPath(name),
			Size: len(diff),
		},
	}
	if len(diff) > 0 {
		preview.Record.Integrity = entities.Integrity(diff)
	}

	recorded, err := it.registry.ReadFile(ctx, preview.Record.Path)
	if err != nil {
		return PatchPreview{}, fmt.Errorf("failed to read %s: %w", preview.Record.Path, err)
	}
	if bytes.Equal(recorded, diff) {
		return preview, nil
	}

	preview.Changed = true
	preview.Diff, err = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(recorded)),
		B:        difflib.SplitLines(string(diff)),
		FromFile: name + " (recorded)",
		ToFile:   name + " (regenerated)",
		Context:  previewContextLines,
	})
	if err != nil {
		return PatchPreview{}, fmt.Errorf("failed to render preview: %w", err)
	}
	return preview, nil
}

// IsRecorded reports whether the registry already holds exactly what
// PatchAndHash would write for the tree: the same patch bytes, a patches map
// naming only that patch with its integrity, and the same build manifest. A
// patch run that failed halfway leaves the tree staged but unrecorded.
func (it *PatchGenerator) IsRecorded(ctx context.Context, tree entities.SourceTree) (bool, error) {
	version := tree.Version

	desc, err := it.registry.ReadSource(ctx, version)
	if err != nil {
		return false, err
	}
	diff, err := it.workingTree.PreviewDiff(ctx, tree.Path)
	if err != nil {
		return false, fmt.Errorf("failed to preview diff: %w", err)
	}

	name := desc.PatchName()
	recorded, err := it.registry.ReadFile(ctx, version.PatchPath(name))
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !bytes.Equal(recorded, diff) {
		logger.Debugf("[%s] %s differs from the staged changes", version, name)
		return false, nil
	}

	if len(diff) == 0 {
		return len(desc.Patches) == 0, nil
	}
	if len(desc.Patches) != 1 || desc.Patches[name] != entities.Integrity(diff) {
		logger.Debugf("[%s] Integrity of %s is not recorded in %s", version, name, entities.SourceFileName)
		return false, nil
	}

	return it.isManifestCopied(ctx, tree)
}

func (it *PatchGenerator) isManifestCopied(ctx context.Context, tree entities.SourceTree) (bool, error) {
	source := filepath.Join(tree.Path, it.settings.ManifestFile)
	data, err := it.registry.ReadFile(ctx, source)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if data == nil {
		return true, nil
	}

	copied, err := it.registry.ReadFile(ctx, filepath.Join(tree.Version.Dir, it.settings.ManifestFile))
	if err != nil {
		return false, fmt.Errorf("failed to read %s copy: %w", it.settings.ManifestFile, err)
	}
	if !bytes.Equal(data, copied) {
		logger.Debugf("[%s] %s copy is out of date", tree.Version, it.settings.ManifestFile)
		return false, nil
	}
	return true, nil
}

// removeSuperseded deletes the patch files that were recorded before but are
// no longer part of the version.
func (it *PatchGenerator) removeSuperseded(
	ctx context.Context,
	version entities.Version,
	previous map[string]string,
	kept string,
) error {
	for name := range previous {
		if name == kept {
			continue
		}
		logger.Infof("[%s] Removing superseded patch %s", version, name)
		if err := it.registry.Remove(ctx, version.PatchPath(name)); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

func (it *PatchGenerator) copyManifest(ctx context.Context, tree entities.SourceTree) error {
	source := filepath.Join(tree.Path, it.settings.ManifestFile)
	data, err := it.registry.ReadFile(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", source, err)
	}
	if data == nil {
		logger.Debugf("[%s] No %s in tree, nothing to copy", tree.Version, it.settings.ManifestFile)
		return nil
	}

	target := filepath.Join(tree.Version.Dir, it.settings.ManifestFile)
	if err = it.registry.WriteFile(ctx, target, data); err != nil {
		return fmt.Errorf("failed to copy %s: %w", it.settings.ManifestFile, err)
	}
	return nil
}
