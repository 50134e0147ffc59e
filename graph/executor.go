package graph

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/mmdatafocus/inventory_backend/directives"
	"github.com/shopspring/decimal"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

//go:embed schema.graphqls
var schemaSource string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSource})

// rootFunc resolves one Query or Mutation field.
type rootFunc func(ctx context.Context, args *arguments) (interface{}, error)

// objectFunc resolves a field that is not read straight off its parent.
type objectFunc func(ctx context.Context, obj interface{}) (interface{}, error)

type executableSchema struct {
	resolver *Resolver
	schema   *ast.Schema
	roots    map[string]rootFunc
	objects  map[string]objectFunc
}

// NewExecutableSchema serves schema.graphqls through the gqlgen handler
// stack: transports, extensions and error presenters apply unchanged.
func NewExecutableSchema(r *Resolver) graphql.ExecutableSchema {
	return &executableSchema{
		resolver: r,
		schema:   parsedSchema,
		roots:    r.rootResolvers(),
		objects:  r.objectResolvers(),
	}
}

func (e *executableSchema) Schema() *ast.Schema {
	return e.schema
}

func (e *executableSchema) Complexity(typeName, field string, childComplexity int, rawArgs map[string]interface{}) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	rc := graphql.GetOperationContext(ctx)
	ec := &executionContext{OperationContext: rc, executableSchema: e}

	var root *ast.Definition
	switch rc.Operation.Operation {
	case ast.Query:
		root = e.schema.Query
	case ast.Mutation:
		root = e.schema.Mutation
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}

	first := true
	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false
		data := ec.executeRoot(ctx, root, rc.Operation.SelectionSet)
		var buf bytes.Buffer
		data.MarshalGQL(&buf)
		return &graphql.Response{
			Data: buf.Bytes(),
		}
	}
}

type executionContext struct {
	*graphql.OperationContext
	*executableSchema
}

// executeRoot runs the root fields in document order, one after another.
func (ec *executionContext) executeRoot(ctx context.Context, root *ast.Definition, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{root.Name})
	out := graphql.NewFieldSet(fields)
	invalids := 0
	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString(root.Name)
		case "__schema":
			out.Values[i] = ec.introspectSchema(ctx, field)
		case "__type":
			out.Values[i] = ec.introspectType(ctx, field)
		default:
			out.Values[i] = ec.resolveRootField(ctx, root, field)
			if out.Values[i] == graphql.Null {
				invalids++
			}
		}
	}
	if invalids > 0 {
		return graphql.Null
	}
	return out
}

func (ec *executionContext) resolveRootField(ctx context.Context, root *ast.Definition, field graphql.CollectedField) graphql.Marshaler {
	def := root.Fields.ForName(field.Name)
	resolve, ok := ec.roots[field.Name]
	if def == nil || !ok {
		graphql.AddErrorf(ctx, "unknown field %s", field.Name)
		return graphql.Null
	}

	rawArgs := field.ArgumentMap(ec.Variables)
	fc := &graphql.FieldContext{
		Object:     root.Name,
		Field:      field,
		Args:       rawArgs,
		IsMethod:   true,
		IsResolver: true,
	}
	ctx = graphql.WithFieldContext(ctx, fc)

	args := &arguments{ec: ec, def: def, values: rawArgs}
	next := func(ctx context.Context) (interface{}, error) {
		if auth := def.Directives.ForName("auth"); auth != nil {
			var role interface{}
			if arg := auth.Arguments.ForName("role"); arg != nil && arg.Value != nil {
				role = arg.Value.Raw
			}
			if err := directives.Auth(ctx, directives.RoleFromDirective(role)); err != nil {
				return nil, err
			}
		}
		return resolve(ctx, args)
	}
	var res interface{}
	var err error
	if ec.ResolverMiddleware != nil {
		res, err = ec.ResolverMiddleware(ctx, next)
	} else {
		res, err = next(ctx)
	}
	if err != nil {
		graphql.AddError(ctx, err)
		return graphql.Null
	}
	fc.Result = res
	return ec.complete(ctx, def.Type, field.Selections, reflect.ValueOf(res))
}

func (ec *executionContext) introspectSchema(ctx context.Context, field graphql.CollectedField) graphql.Marshaler {
	if ec.DisableIntrospection {
		graphql.AddErrorf(ctx, "introspection disabled")
		return graphql.Null
	}
	schema := introspection.WrapSchema(ec.schema)
	return ec.complete(ctx, ast.NamedType("__Schema", nil), field.Selections, reflect.ValueOf(schema))
}

func (ec *executionContext) introspectType(ctx context.Context, field graphql.CollectedField) graphql.Marshaler {
	if ec.DisableIntrospection {
		graphql.AddErrorf(ctx, "introspection disabled")
		return graphql.Null
	}
	name, _ := field.ArgumentMap(ec.Variables)["name"].(string)
	def, ok := ec.schema.Types[name]
	if !ok {
		return graphql.Null
	}
	t := introspection.WrapTypeFromDef(ec.schema, def)
	return ec.complete(ctx, ast.NamedType("__Type", nil), field.Selections, reflect.ValueOf(t))
}

// complete shapes a resolved Go value into the selection set of typ.
func (ec *executionContext) complete(ctx context.Context, typ *ast.Type, sel ast.SelectionSet, v reflect.Value) graphql.Marshaler {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return graphql.Null
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return graphql.Null
	}

	if typ.Elem != nil {
		return ec.completeList(ctx, typ, sel, v)
	}

	def := ec.schema.Types[typ.NamedType]
	if def == nil {
		return graphql.Null
	}
	switch def.Kind {
	case ast.Scalar, ast.Enum:
		return marshalLeaf(def, v)
	case ast.Object:
		if v.Kind() == reflect.Ptr && v.IsNil() {
			return graphql.Null
		}
		return ec.completeObject(ctx, def, sel, v)
	}
	return graphql.Null
}

// completeList marshals elements concurrently so field loaders can batch.
func (ec *executionContext) completeList(ctx context.Context, typ *ast.Type, sel ast.SelectionSet, v reflect.Value) graphql.Marshaler {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return graphql.Null
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return graphql.Null
	}
	if v.Kind() == reflect.Slice && v.IsNil() && !typ.NonNull {
		return graphql.Null
	}

	ret := make(graphql.Array, v.Len())
	var wg sync.WaitGroup
	if v.Len() > 1 {
		wg.Add(v.Len())
	}
	for i := 0; i < v.Len(); i++ {
		i := i
		f := func() {
			ret[i] = ec.complete(ctx, typ.Elem, sel, v.Index(i))
		}
		if v.Len() == 1 {
			f()
			continue
		}
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()

	if typ.Elem.NonNull {
		for _, e := range ret {
			if e == graphql.Null {
				return graphql.Null
			}
		}
	}
	return ret
}

func (ec *executionContext) completeObject(ctx context.Context, def *ast.Definition, sel ast.SelectionSet, v reflect.Value) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{def.Name})
	out := graphql.NewFieldSet(fields)
	invalids := 0
	for i, field := range fields {
		if field.Name == "__typename" {
			out.Values[i] = graphql.MarshalString(def.Name)
			continue
		}
		fd := def.Fields.ForName(field.Name)
		if fd == nil {
			out.Values[i] = graphql.Null
			continue
		}

		var value reflect.Value
		if resolve, ok := ec.objects[def.Name+"."+field.Name]; ok {
			fc := &graphql.FieldContext{
				Parent:     graphql.GetFieldContext(ctx),
				Object:     def.Name,
				Field:      field,
				IsMethod:   true,
				IsResolver: true,
			}
			fieldCtx := graphql.WithFieldContext(ctx, fc)
			res, err := resolve(fieldCtx, v.Interface())
			if err != nil {
				graphql.AddError(fieldCtx, err)
			} else {
				value = reflect.ValueOf(res)
			}
		} else {
			value = readField(v, field.Name, field.ArgumentMap(ec.Variables))
		}

		out.Values[i] = ec.complete(ctx, fd.Type, field.Selections, value)
		if out.Values[i] == graphql.Null && fd.Type.NonNull {
			invalids++
		}
	}
	if invalids > 0 {
		return graphql.Null
	}
	return out
}

var jsonFieldCache sync.Map // reflect.Type -> map[string][]int

func jsonFields(t reflect.Type) map[string][]int {
	if cached, ok := jsonFieldCache.Load(t); ok {
		return cached.(map[string][]int)
	}
	fields := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if _, taken := fields[name]; !taken {
			fields[name] = f.Index
		}
	}
	jsonFieldCache.Store(t, fields)
	return fields
}

var introspectionPkg = reflect.TypeOf(introspection.Type{}).PkgPath()

// readField reads name off v through its json-tagged struct fields. The
// introspection types carry no json tags; only they fall back to a method or
// exported field of the same name in Go case.
func readField(v reflect.Value, name string, args map[string]interface{}) reflect.Value {
	ptr := v
	for ptr.Kind() == reflect.Interface {
		ptr = ptr.Elem()
	}
	if ptr.Kind() != reflect.Ptr {
		if ptr.CanAddr() {
			ptr = ptr.Addr()
		} else {
			cp := reflect.New(ptr.Type())
			cp.Elem().Set(ptr)
			ptr = cp
		}
	}
	if ptr.IsNil() {
		return reflect.Value{}
	}
	elem := ptr.Elem()

	if elem.Kind() == reflect.Struct {
		if index, ok := jsonFields(elem.Type())[name]; ok {
			if f, err := elem.FieldByIndexErr(index); err == nil {
				return f
			}
			return reflect.Value{}
		}
	}

	if elem.Type().PkgPath() != introspectionPkg {
		return reflect.Value{}
	}
	goName := strings.ToUpper(name[:1]) + name[1:]
	if m := ptr.MethodByName(goName); m.IsValid() && m.Type().NumOut() >= 1 {
		switch {
		case m.Type().NumIn() == 0:
			return m.Call(nil)[0]
		case m.Type().NumIn() == 1 && m.Type().In(0).Kind() == reflect.Bool:
			include, _ := args["includeDeprecated"].(bool)
			return m.Call([]reflect.Value{reflect.ValueOf(include)})[0]
		}
	}
	if elem.Kind() == reflect.Struct {
		if f := elem.FieldByName(goName); f.IsValid() && f.CanInterface() {
			return f
		}
	}
	return reflect.Value{}
}

func marshalLeaf(def *ast.Definition, v reflect.Value) graphql.Marshaler {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return graphql.Null
		}
		v = v.Elem()
	}
	if !v.CanInterface() {
		return graphql.Null
	}

	if def.Kind == ast.Enum {
		if v.Kind() == reflect.String && v.String() == "" {
			return graphql.Null
		}
		if m, ok := v.Interface().(graphql.Marshaler); ok {
			return m
		}
		return graphql.MarshalString(v.String())
	}

	switch def.Name {
	case "Int":
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return graphql.MarshalInt64(v.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return graphql.MarshalInt64(int64(v.Uint()))
		}
	case "Float":
		switch v.Kind() {
		case reflect.Float32, reflect.Float64:
			return graphql.MarshalFloat(v.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return graphql.MarshalFloat(float64(v.Int()))
		}
	case "Boolean":
		if v.Kind() == reflect.Bool {
			return graphql.MarshalBoolean(v.Bool())
		}
	case "String", "ID":
		if v.Kind() == reflect.String {
			return graphql.MarshalString(v.String())
		}
	case "Time":
		if t, ok := v.Interface().(time.Time); ok {
			if t.IsZero() {
				return graphql.Null
			}
			return graphql.MarshalTime(t)
		}
	case "Decimal":
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return MarshalDecimal(d)
		}
	}

	b, err := json.Marshal(v.Interface())
	if err != nil {
		return graphql.Null
	}
	return graphql.WriterFunc(func(w io.Writer) {
		w.Write(b)
	})
}

// arguments decodes field arguments into the model input types.
type arguments struct {
	ec     *executionContext
	def    *ast.FieldDefinition
	values map[string]interface{}
}

func (a *arguments) String(name string) string {
	s, _ := a.values[name].(string)
	return s
}

// Decode leaves dest untouched when the argument is absent or null.
func (a *arguments) Decode(name string, dest interface{}) error {
	raw, ok := a.values[name]
	argDef := a.def.Arguments.ForName(name)
	if !ok || raw == nil || argDef == nil {
		return nil
	}
	normalized, err := a.ec.normalizeInput(argDef.Type, raw)
	if err != nil {
		return argumentError(name, err)
	}
	b, err := json.Marshal(normalized)
	if err != nil {
		return argumentError(name, err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return argumentError(name, err)
	}
	return nil
}

func argumentError(name string, err error) *gqlerror.Error {
	return &gqlerror.Error{
		Message: "invalid argument " + name + ": " + err.Error(),
		Extensions: map[string]interface{}{
			"code": "GRAPHQL_VALIDATION_FAILED",
		},
	}
}

// normalizeInput rewrites Decimal scalars to canonical strings so the json
// decoders of the model types accept user-formatted amounts.
func (ec *executionContext) normalizeInput(typ *ast.Type, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if typ.Elem != nil {
		list, ok := v.([]interface{})
		if !ok {
			list = []interface{}{v}
		}
		out := make([]interface{}, len(list))
		for i, item := range list {
			n, err := ec.normalizeInput(typ.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}

	if typ.NamedType == "Decimal" {
		d, err := UnmarshalDecimal(v)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	}

	def := ec.schema.Types[typ.NamedType]
	obj, ok := v.(map[string]interface{})
	if def == nil || def.Kind != ast.InputObject || !ok {
		return v, nil
	}
	out := make(map[string]interface{}, len(obj))
	for key, value := range obj {
		fd := def.Fields.ForName(key)
		if fd == nil {
			continue
		}
		n, err := ec.normalizeInput(fd.Type, value)
		if err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, nil
}
