package runsheet

import (
	"path/filepath"
	"strings"

	"github.com/shaiso/scauto/internal/domain"
)

// organismCodes — имя организма из исходного листа → код референса.
var organismCodes = map[string]string{
	"human":   "GRCh38",
	"mouse":   "MM10",
	"mulatta": "MacMul",
}

// vdjMarkers — маркер набора в описании → тип цепи. Порядок проверки важен:
// SGSC5V не пересекается с SGSC5TCR/SGSC5BCR.
var vdjMarkers = []struct {
	marker string
	chain  string
}{
	{"SGSC5V", "5"},
	{"SGSC5TCR", "TR"},
	{"SGSC5BCR", "IG"},
}

// OrganismCode переводит имя организма в код референса.
// Неизвестное имя возвращается как есть.
func OrganismCode(name string) string {
	if code, ok := organismCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}
	return name
}

// ExtractTissue разбирает описание вида "key=value;key=value" и
// возвращает ткань в формате моделей аннотации ("PBMC;cells").
func ExtractTissue(description string) string {
	fields := make(map[string]string)
	for _, pair := range strings.Split(description, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	tissue, ok := fields["tissue"]
	if !ok {
		tissue, ok = fields["biotype"]
	}
	if !ok {
		return ""
	}

	switch {
	case strings.Contains(tissue, "nuclei"):
		return "PBMC;nuclei"
	case tissue == "blood", strings.Contains(tissue, "PBMC"):
		return "PBMC;cells"
	}
	return tissue
}

// ExtractVDJType возвращает тип цепи по маркеру набора в описании.
func ExtractVDJType(description string) string {
	for _, m := range vdjMarkers {
		if strings.Contains(description, m.marker) {
			return m.chain
		}
	}
	return ""
}

// ChemistryForVDJType возвращает chemistry образца SeekGene по типу цепи:
// "5" — сопутствующий RNA, TR и IG — VDJ.
func ChemistryForVDJType(chain string) (domain.Chemistry, bool) {
	switch chain {
	case "5":
		return domain.ChemistrySeekGeneRNA, true
	case "TR", "IG":
		return domain.ChemistrySeekGeneVDJ, true
	}
	return "", false
}

// imageTokens разбивает имя изображения без .tif по "_".
func imageTokens(image string) []string {
	if image == "" {
		return nil
	}
	base := strings.TrimSuffix(filepath.Base(image), ".tif")
	return strings.Split(base, "_")
}

// SlideFromImage возвращает серийный номер слайда (второй токен имени).
func SlideFromImage(image string) string {
	if tokens := imageTokens(image); len(tokens) > 1 {
		return tokens[1]
	}
	return ""
}

// AreaFromImage возвращает область захвата (третий токен имени).
func AreaFromImage(image string) string {
	if tokens := imageTokens(image); len(tokens) > 2 {
		return tokens[2]
	}
	return ""
}

// FindImage ищет изображение образца <dir>/<sample>*.tif.
func FindImage(sampleID, dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, sampleID+"*.tif"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// FillSpatial заполняет Image, Slide и Area пространственных образцов.
func FillSpatial(samples []domain.Sample, imageDir string) {
	for i := range samples {
		s := &samples[i]
		if !s.Chemistry.IsSpatial() {
			continue
		}
		if s.Image == "" {
			s.Image = FindImage(s.SampleID, imageDir)
		}
		if s.Slide == "" {
			s.Slide = SlideFromImage(s.Image)
		}
		if s.Area == "" {
			s.Area = AreaFromImage(s.Image)
		}
	}
}
