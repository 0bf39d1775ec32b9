package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/loader"
)

// ProgramError is a program file that could not be loaded.
type ProgramError struct {
	Code   string
	Source string
	Err    error
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ProgramError) Unwrap() error {
	return e.Err
}

// findPrograms expands args into CUE program paths. A directory
// contributes every .cue file below it, in lexical order.
func findPrograms(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, &ProgramError{Code: ErrCodeNotFound, Source: arg, Err: errors.New("no such file or directory")}
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == ".cue" {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, &ProgramError{Code: ErrCodeGeneric, Source: arg, Err: err}
		}
		if len(found) == 0 {
			return nil, &ProgramError{Code: ErrCodeNoFiles, Source: arg, Err: errors.New("no CUE files found")}
		}
		slices.Sort(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

// loadProgram loads one program file, classifying failures.
func loadProgram(path string) (*ir.Program, error) {
	p, err := loader.LoadFile(path)
	if err == nil {
		return p, nil
	}
	code := ErrCodeLoadFailed
	if errors.Is(err, fs.ErrNotExist) {
		code = ErrCodeNotFound
	}
	return nil, &ProgramError{Code: code, Source: path, Err: err}
}

// errorCode is the code reported for err: its diag or CLI code, else the
// generic code.
func errorCode(err error, fallback string) string {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe.Code
	}
	if code := diagCode(err); code != "" {
		return code
	}
	return fallback
}
