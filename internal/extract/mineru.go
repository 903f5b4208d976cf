package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"manualhub/internal/config"
)

const modelDownloadBaseDelay = 2 * time.Second

// MinerUStrategy shells out to the MinerU CLI for full-fidelity conversion:
// headings, embedded image links and table markup. It is the first step of
// the chain and the only one with external prerequisites.
type MinerUStrategy struct {
	cfg config.ExtractConfig
}

func NewMinerUStrategy(cfg config.ExtractConfig) *MinerUStrategy {
	return &MinerUStrategy{cfg: cfg}
}

func (s *MinerUStrategy) Name() string { return "mineru" }

func (s *MinerUStrategy) Extract(ctx context.Context, pdfPath, outDir string) (string, error) {
	if err := s.ensureModels(ctx); err != nil {
		return "", fmt.Errorf("model assets unavailable: %w", err)
	}

	configPath, err := s.writeToolConfig()
	if err != nil {
		return "", err
	}
	// The tool config is an intermediate artifact; remove it on success and
	// failure alike.
	defer os.Remove(configPath)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir failed: %w", err)
	}

	runCtx := ctx
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, s.cfg.MinerUCommand,
		"-p", pdfPath,
		"-o", outDir,
		"-m", "auto",
		"-c", configPath,
	)
	cmd.Env = append(os.Environ(), "OMP_NUM_THREADS=2")
	if strings.EqualFold(s.cfg.DeviceMode, "cpu") {
		cmd.Env = append(cmd.Env, "CUDA_VISIBLE_DEVICES=")
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("mineru run failed: %w: %s", err, truncateOutput(out))
	}

	text := collectMarkdown(outDir)
	if text == "" {
		// The tool exited cleanly but produced nothing usable; let the next
		// strategy have the file.
		log.Printf("mineru produced no markdown under %s", outDir)
	}
	return text, nil
}

// ensureModels checks that the PDF-Extract-Kit model assets are present and
// downloads them otherwise, retrying with exponential backoff before giving
// up (the download is flaky on cold hosts).
func (s *MinerUStrategy) ensureModels(ctx context.Context) error {
	if dirNonEmpty(s.cfg.ModelsDir) {
		return nil
	}
	if s.cfg.ModelsCommand == "" {
		return fmt.Errorf("models dir %s is empty and no download command configured", s.cfg.ModelsDir)
	}

	retries := s.cfg.DownloadRetries
	if retries <= 0 {
		retries = 3
	}

	var lastErr error
	delay := modelDownloadBaseDelay
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		cmd := exec.CommandContext(ctx, s.cfg.ModelsCommand, "-d", s.cfg.ModelsDir)
		out, err := cmd.CombinedOutput()
		if err == nil && dirNonEmpty(s.cfg.ModelsDir) {
			return nil
		}
		if err == nil {
			err = fmt.Errorf("download command succeeded but %s is still empty", s.cfg.ModelsDir)
		}
		lastErr = fmt.Errorf("model download attempt %d failed: %w: %s", attempt+1, err, truncateOutput(out))
		log.Printf("%v", lastErr)
	}
	return lastErr
}

func (s *MinerUStrategy) writeToolConfig() (string, error) {
	modelsDir, err := filepath.Abs(s.cfg.ModelsDir)
	if err != nil {
		modelsDir = s.cfg.ModelsDir
	}
	toolCfg := map[string]any{
		"device-mode":    s.cfg.DeviceMode,
		"models-dir":     modelsDir,
		"formula-enable": s.cfg.FormulaEnable,
		"table-enable":   s.cfg.TableEnable,
		"method":         "auto",
	}
	payload, err := json.MarshalIndent(toolCfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tool config failed: %w", err)
	}

	f, err := os.CreateTemp("", "mineru-config-*.json")
	if err != nil {
		return "", fmt.Errorf("create tool config failed: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write tool config failed: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close tool config failed: %w", err)
	}
	return f.Name(), nil
}

// collectMarkdown concatenates every markdown file the tool wrote under
// outDir, in lexical order for reproducibility.
func collectMarkdown(outDir string) string {
	var paths []string
	_ = filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)

	var sb strings.Builder
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.Write(data)
	}
	return sb.String()
}

func dirNonEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

func truncateOutput(out []byte) string {
	const max = 512
	s := strings.TrimSpace(string(out))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
