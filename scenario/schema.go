package scenario

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error

	// schemaMu serializes use of schemaCtx, which is not safe for concurrent use.
	schemaMu sync.Mutex
)

// SchemaError is returned when a scenario document does not satisfy the
// scenario schema.
type SchemaError struct {
	// Path is the dotted path of the offending field, if known.
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("schema: %s", e.Message)
}

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile scenario schema: %w", err)
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Scenario"))
	})
	return schemaCtx, schemaDef, schemaErr
}

// checkSchema unifies a decoded document with #Scenario. Definitions are
// closed, so unknown keys inside expect entries are rejected here.
func checkSchema(doc map[string]any) error {
	ctx, def, err := loadSchema()
	if err != nil {
		return err
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	v := def.Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatSchemaError(err)
	}
	return nil
}

// formatSchemaError reports the first CUE error with its field path.
func formatSchemaError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}
	first := errs[0]
	path := first.Path()
	if len(path) > 0 && path[0] == "#Scenario" {
		path = path[1:]
	}
	format, args := first.Msg()
	return &SchemaError{
		Path:    strings.Join(path, "."),
		Message: fmt.Sprintf(format, args...),
	}
}
