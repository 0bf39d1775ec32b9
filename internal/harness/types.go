package harness

import (
	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/loader"
	"github.com/roach88/scriptc/internal/pipeline"
	"github.com/roach88/scriptc/internal/store"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`

	// Program is the name of the compiled program.
	Program string `json:"program"`

	// Dialect is the dialect the scenario compiled for.
	Dialect string `json:"dialect"`

	// Artifact is the compile output; nil when the compile failed.
	Artifact *pipeline.Artifact `json:"-"`

	// Recompiled is a second, uncached compile of the same program.
	Recompiled *pipeline.Artifact `json:"-"`

	// CacheHit reports whether compiling again through the store hit.
	CacheHit bool `json:"cache_hit"`

	// Err is the compile error, if any.
	Err error `json:"-"`

	// Code is the diagnostic code of Err.
	Code diag.Code `json:"code,omitempty"`

	// Validation holds static problems found before compiling.
	Validation []loader.ValidationError `json:"validation,omitempty"`

	// Cycles holds recursion found between definitions.
	Cycles []loader.CycleWarning `json:"cycles,omitempty"`

	// Builds is the build log the scenario produced.
	Builds []store.Build `json:"builds"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Builds: []store.Build{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
