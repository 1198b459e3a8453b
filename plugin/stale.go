package plugin

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/donutnomad/dissolvegen/internal/utils"
	"github.com/samber/lo"
)

// OutputOwner 可选接口，生成器声明源文件在没有任何目标时仍归它所有的输出路径
// 例如标记被删掉后，源文件原来的默认输出文件
type OutputOwner interface {
	OwnedOutputs(sourceFile string, pkgConfig *PackageConfig, cmdOutput string) []string
}

// IsGeneratedFile package 子句之前是否有 GeneratedHeader，文件不存在时返回 false
func IsGeneratedFile(path string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "// "+GeneratedHeader {
			return true, nil
		}
		if strings.HasPrefix(line, "package ") {
			break
		}
	}
	return false, sc.Err()
}

// staleOutputs 归属于生成器、本次没有产生输出、且由本工具生成的文件
// 执行失败的生成器不参与，避免一次出错就删掉它的全部输出
func staleOutputs(registry *Registry, scanned *ScanResult, outcomes []genOutcome, produced map[string]bool, cmdOutput string) ([]string, []error) {
	failed := lo.SliceToMap(lo.Filter(outcomes, func(o genOutcome, _ int) bool { return o.err != nil }),
		func(o genOutcome) (string, bool) { return o.name, true })

	candidates := make(map[string]bool)
	for _, gen := range registry.Generators() {
		owner, ok := gen.(OutputOwner)
		if !ok || failed[gen.Name()] {
			continue
		}
		for _, file := range scanned.Files {
			pkgConfig := scanned.PackageConfigs[filepath.Dir(file)]
			for _, path := range owner.OwnedOutputs(file, pkgConfig, cmdOutput) {
				candidates[path] = true
			}
		}
	}
	for _, o := range outcomes {
		if o.result == nil {
			continue
		}
		for _, path := range o.result.Claimed {
			candidates[path] = true
		}
	}

	var (
		stale []string
		errs  []error
	)
	for _, path := range utils.SortedKeys(candidates) {
		if produced[path] {
			continue
		}
		generated, err := IsGeneratedFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("读取 %s 失败: %w", path, err))
			continue
		}
		if generated {
			stale = append(stale, path)
		}
	}
	return stale, errs
}
