package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/shaiso/scauto/internal/domain"
)

// TenXRNABuilder — cellranger count для 10x scRNA.
type TenXRNABuilder struct{}

// Chemistry возвращает chemistry построителя.
func (b *TenXRNABuilder) Chemistry() domain.Chemistry {
	return domain.ChemistryTenXRNA
}

// Build строит команду cellranger count.
func (b *TenXRNABuilder) Build(req *Request) (*Command, error) {
	suffix, err := organismSuffix(req.RefDir)
	if err != nil {
		return nil, err
	}
	if req.MemoryGB <= 0 {
		return nil, fmt.Errorf("%w: %s requires memory", ErrMissingArgument, b.Chemistry())
	}

	args := []string{
		filepath.Join(req.ToolDir, "cellranger"), "count",
		"--id", req.SampleID + "_" + suffix,
		"--sample", req.SampleID,
		"--fastqs", filepath.Join(req.DataDir, req.Flowcell),
		"--transcriptome", req.RefDir,
		"--localcores", strconv.Itoa(req.Cores),
		"--localmem", strconv.Itoa(req.MemoryGB),
		"--create-bam", "true",
	}
	args = append(args, req.ExtraArgs...)

	return &Command{Args: args, LogPath: logPath(req, suffix)}, nil
}

// TenXATACBuilder — cellranger-atac count для 10x scATAC.
type TenXATACBuilder struct{}

// Chemistry возвращает chemistry построителя.
func (b *TenXATACBuilder) Chemistry() domain.Chemistry {
	return domain.ChemistryTenXATAC
}

// Build строит команду cellranger-atac count.
func (b *TenXATACBuilder) Build(req *Request) (*Command, error) {
	suffix, err := organismSuffix(req.RefDir)
	if err != nil {
		return nil, err
	}
	if req.MemoryGB <= 0 {
		return nil, fmt.Errorf("%w: %s requires memory", ErrMissingArgument, b.Chemistry())
	}

	args := []string{
		filepath.Join(req.ToolDir, "cellranger-atac"), "count",
		"--id", req.SampleID + "_" + suffix,
		"--sample", req.SampleID,
		"--fastqs", filepath.Join(req.DataDir, req.Flowcell),
		"--reference", req.RefDir,
		"--localcores", strconv.Itoa(req.Cores),
		"--localmem", strconv.Itoa(req.MemoryGB),
	}
	args = append(args, req.ExtraArgs...)

	return &Command{Args: args, LogPath: logPath(req, suffix)}, nil
}

// VisiumFFPEBuilder — spaceranger count для Visium FFPE.
type VisiumFFPEBuilder struct{}

// Chemistry возвращает chemistry построителя.
func (b *VisiumFFPEBuilder) Chemistry() domain.Chemistry {
	return domain.ChemistryTenXVisiumFFPE
}

// Build строит команду spaceranger count.
// Требует probe-set и метаданные изображения (slide, area).
func (b *VisiumFFPEBuilder) Build(req *Request) (*Command, error) {
	suffix, err := organismSuffix(req.RefDir)
	if err != nil {
		return nil, err
	}
	for _, arg := range [][2]string{
		{"probe set", req.ProbeSet},
		{"image", req.Image},
		{"area", req.Area},
		{"slide", req.Slide},
	} {
		if err := requireArg(b.Chemistry(), arg[0], arg[1]); err != nil {
			return nil, err
		}
	}
	if req.MemoryGB <= 0 {
		return nil, fmt.Errorf("%w: %s requires memory", ErrMissingArgument, b.Chemistry())
	}

	args := []string{
		filepath.Join(req.ToolDir, "spaceranger"), "count",
		"--id=" + req.SampleID + "_" + suffix,
		"--sample=" + req.SampleID,
		"--fastqs=" + filepath.Join(req.DataDir, req.Flowcell),
		"--transcriptome=" + req.RefDir,
		"--probe-set=" + req.ProbeSet,
		"--image=" + req.Image,
		"--area=" + req.Area,
		"--slide=" + req.Slide,
		"--localcores=" + strconv.Itoa(req.Cores),
		"--localmem=" + strconv.Itoa(req.MemoryGB),
		"--create-bam=true",
	}
	args = append(args, req.ExtraArgs...)

	return &Command{Args: args, LogPath: logPath(req, suffix)}, nil
}
