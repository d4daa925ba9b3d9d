package signature

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCtx struct {
	calls int
}

type Color int

const (
	Red Color = iota
	Green
	Blue
)

func (Color) EnumMembers() []EnumMember {
	return []EnumMember{{Name: "RED", Value: Red}, {Name: "GREEN", Value: Green}, {Name: "BLUE", Value: Blue}}
}

type deployParams struct {
	Service  string
	Env      string   `default:"staging" arg:"aliases=-e"`
	DryRun   bool     `default:"false"`
	Push     bool     `default:"true"`
	Tags     []string `default:""`
	Replicas int      `default:"1" arg:"metavar=N"`
	Color    Color    `default:"red"`
	Targets  []string `arg:",variadic"`
}

const deployDoc = `Deploy a service.

Builds and rolls out the service.

Args:
    ctx: The context.
    service: Service name.
    env: Target environment.
    dry_run: Only print.
    push: Push images
    tags: Extra tags.
    replicas: Replica count.
    color: Deployment color
    targets: Hosts to target.
`

var deployed deployParams

func deploy(ctx *testCtx, p deployParams) error {
	ctx.calls++
	deployed = p
	return nil
}

func TestGet(t *testing.T) {
	t.Parallel()

	sig, err := Get[*testCtx](deploy, deployDoc)
	require.NoError(t, err)
	assert.Equal(t, "github.com/mfridman/sigcli/pkg/signature.deploy", sig.Name())
	assert.Equal(t, "Deploy a service.", sig.ShortDescription)
	assert.Equal(t, "Builds and rolls out the service.", sig.LongDescription)
	require.Len(t, sig.Arguments, 8)

	byName := make(map[string]*Argument)
	var order []string
	for _, arg := range sig.Arguments {
		byName[arg.Name] = arg
		order = append(order, arg.Name)
	}
	assert.Equal(t, []string{"service", "env", "dry_run", "push", "tags", "replicas", "color", "targets"}, order)

	t.Run("positional", func(t *testing.T) {
		t.Parallel()
		arg := byName["service"]
		assert.Equal(t, KindPositional, arg.Kind)
		assert.Equal(t, []string{"service"}, arg.Aliases)
		assert.Equal(t, NargsOne, arg.Nargs)
		assert.Equal(t, ActionStore, arg.Action)
		assert.Equal(t, "SERVICE", arg.Metavar)
		assert.Nil(t, arg.Default)
		assert.False(t, arg.Required)
	})
	t.Run("flag with alias", func(t *testing.T) {
		t.Parallel()
		arg := byName["env"]
		assert.Equal(t, KindFlag, arg.Kind)
		assert.Equal(t, []string{"--env", "-e"}, arg.Aliases)
		assert.Equal(t, "staging", arg.Default)
		assert.Equal(t, "Target environment.", arg.Description)
	})
	t.Run("booleans", func(t *testing.T) {
		t.Parallel()
		dry := byName["dry_run"]
		assert.Equal(t, ActionStoreTrue, dry.Action)
		assert.Equal(t, []string{"--dry-run"}, dry.Aliases)
		assert.Equal(t, false, dry.Default)
		assert.Nil(t, dry.Convert)

		push := byName["push"]
		assert.Equal(t, ActionStoreFalse, push.Action)
		assert.Equal(t, true, push.Default)
	})
	t.Run("list", func(t *testing.T) {
		t.Parallel()
		arg := byName["tags"]
		assert.Equal(t, ActionAppend, arg.Action)
		assert.Equal(t, NargsOne, arg.Nargs)
		assert.Equal(t, "string", arg.Type.String())
		assert.Nil(t, arg.Default)
	})
	t.Run("int with metavar", func(t *testing.T) {
		t.Parallel()
		arg := byName["replicas"]
		assert.Equal(t, ActionStore, arg.Action)
		assert.Equal(t, 1, arg.Default)
		assert.Equal(t, "N", arg.Metavar)
		v, err := arg.Convert("42")
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		_, err = arg.Convert("forty-two")
		require.Error(t, err)
	})
	t.Run("enum", func(t *testing.T) {
		t.Parallel()
		arg := byName["color"]
		assert.Equal(t, ActionEnum, arg.Action)
		assert.Equal(t, Red, arg.Default)
		assert.Nil(t, arg.Choices)
		assert.Equal(t, "string", arg.Type.String())
		assert.Equal(t, "Deployment color. Choices: 'red', 'green', 'blue'.", arg.Description)

		v, err := arg.Convert("GREEN")
		require.NoError(t, err)
		assert.Equal(t, Green, v)
		v, err = arg.Convert("2")
		require.NoError(t, err)
		assert.Equal(t, Blue, v)
		_, err = arg.Convert("purple")
		require.Error(t, err)
		assert.ErrorContains(t, err, "invalid choice: 'purple'. Available choices are 'red', 'green', 'blue'")
	})
	t.Run("variadic", func(t *testing.T) {
		t.Parallel()
		arg := byName["targets"]
		assert.Equal(t, KindVariadic, arg.Kind)
		assert.Equal(t, NargsAny, arg.Nargs)
		assert.Equal(t, ActionStore, arg.Action)
		assert.Equal(t, []string{"targets"}, arg.Aliases)
	})
}

func TestGetIsIdempotent(t *testing.T) {
	t.Parallel()

	first, err := Get[*testCtx](deploy, deployDoc)
	require.NoError(t, err)
	second, err := Get[*testCtx](deploy, deployDoc)
	require.NoError(t, err)
	require.Equal(t, len(first.Arguments), len(second.Arguments))
	for i := range first.Arguments {
		a, b := *first.Arguments[i], *second.Arguments[i]
		a.Convert, b.Convert = nil, nil
		assert.Equal(t, a, b)
	}
}

func TestCall(t *testing.T) {
	t.Parallel()

	sig, err := Get[*testCtx](deploy, deployDoc)
	require.NoError(t, err)
	ctx := new(testCtx)
	err = sig.Call(ctx, Values{
		"service":  "api",
		"env":      "prod",
		"dry_run":  true,
		"push":     false,
		"tags":     []any{"a", "b"},
		"replicas": 3,
		"color":    Green,
		"targets":  []any{"h1", "h2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ctx.calls)
	assert.Equal(t, deployParams{
		Service:  "api",
		Env:      "prod",
		DryRun:   true,
		Push:     false,
		Tags:     []string{"a", "b"},
		Replicas: 3,
		Color:    Green,
		Targets:  []string{"h1", "h2"},
	}, deployed)
}

func TestCallPartial(t *testing.T) {
	t.Parallel()

	type params struct {
		Name  string
		Limit *int     `default:""`
		Ratio float64  `default:"0.5"`
		Push  bool     `default:"true"`
		Tags  []string `default:"a,b"`
	}
	var got params
	fn := func(ctx *testCtx, p *params) error {
		got = *p
		return nil
	}
	sig, err := Get[*testCtx](fn, "Limit things.\n\nArgs:\n  name: The name.\n  limit: Optional limit.\n  ratio: A ratio.\n  push: Push.\n  tags: Tags.\n")
	require.NoError(t, err)
	require.Len(t, sig.Arguments, 5)
	assert.Nil(t, sig.Arguments[1].Default)
	assert.Equal(t, "int", sig.Arguments[1].Type.String())

	require.NoError(t, sig.Call(new(testCtx), Values{"name": "n"}))
	assert.Equal(t, params{Name: "n", Ratio: 0.5, Push: true, Tags: []string{"a", "b"}}, got)
	got.Tags[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, sig.Arguments[4].Default)

	require.NoError(t, sig.Call(new(testCtx), Values{"name": "n", "ratio": nil}))
	assert.Equal(t, 0.5, got.Ratio)

	require.NoError(t, sig.Call(new(testCtx), Values{"name": "n", "limit": 7, "ratio": 0.25, "push": false, "tags": []any{"c"}}))
	require.NotNil(t, got.Limit)
	assert.Equal(t, 7, *got.Limit)
	assert.Equal(t, 0.25, got.Ratio)
	assert.False(t, got.Push)
	assert.Equal(t, []string{"c"}, got.Tags)
}

func TestCallReturnsCommandError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	fn := func(ctx *testCtx) error { return boom }
	sig, err := Get[*testCtx](fn, "Fail.")
	require.NoError(t, err)
	require.ErrorIs(t, sig.Call(new(testCtx), nil), boom)
}

func TestZeroParameters(t *testing.T) {
	t.Parallel()

	fn := func(ctx *testCtx) error {
		ctx.calls++
		return nil
	}
	sig, err := Get[*testCtx](fn, "Say hello.")
	require.NoError(t, err)
	assert.Empty(t, sig.Arguments)
	assert.Equal(t, "Say hello.", sig.ShortDescription)
	assert.Equal(t, "Say hello.", sig.LongDescription)

	ctx := new(testCtx)
	require.NoError(t, sig.Call(ctx, Values{}))
	assert.Equal(t, 1, ctx.calls)
}

func TestBooleanList(t *testing.T) {
	t.Parallel()

	fn := func(ctx *testCtx, p struct {
		Flags []bool `default:"true,FALSE"`
	}) error {
		return nil
	}
	sig, err := Get[*testCtx](fn, "Flags.\n\nArgs:\n  flags: Some flags.\n")
	require.NoError(t, err)
	arg := sig.Arguments[0]
	assert.Equal(t, ActionAppendBool, arg.Action)
	assert.Equal(t, "string", arg.Type.String())
	assert.Equal(t, []bool{true, false}, arg.Default)

	v, err := arg.Convert("TRUE")
	require.NoError(t, err)
	assert.Equal(t, true, v)
	v, err = arg.Convert("false")
	require.NoError(t, err)
	assert.Equal(t, false, v)
	for _, bad := range []string{"1", "yes", "t", ""} {
		_, err := arg.Convert(bad)
		assert.Error(t, err, bad)
	}
}

func TestEnumChoices(t *testing.T) {
	t.Parallel()

	fn := func(ctx *testCtx, p struct {
		Color  Color   `default:"" arg:"choices=blue|Red"`
		Colors []Color `default:"green"`
	}) error {
		return nil
	}
	sig, err := Get[*testCtx](fn, "Paint.\n\nArgs:\n  color: The color.\n  colors: More colors.\n")
	require.NoError(t, err)

	color := sig.Arguments[0]
	assert.Equal(t, ActionEnum, color.Action)
	assert.Nil(t, color.Choices)
	assert.Nil(t, color.Default)
	assert.Equal(t, "The color. Choices: 'blue', 'red'.", color.Description)
	_, err = color.Convert("green")
	require.Error(t, err)

	colors := sig.Arguments[1]
	assert.Equal(t, ActionAppend, colors.Action)
	assert.Equal(t, []Color{Green}, colors.Default)
	v, err := colors.Convert("Blue")
	require.NoError(t, err)
	assert.Equal(t, Blue, v)
}

func TestMutuallyExclusiveSetup(t *testing.T) {
	t.Parallel()

	fn := func(ctx *testCtx, p struct {
		Quiet   bool   `default:"false" arg:"group=verbosity"`
		Format  string `default:"text" arg:"choices=text|json"`
		Verbose bool   `default:"false" arg:"group=verbosity"`
		Colored bool   `default:"false" arg:"group=color"`
		Plain   bool   `default:"false" arg:"group=color"`
	}) error {
		return nil
	}
	doc := `Log things.

Args:
    quiet: Less output.
    format: Output format.
    verbose: More output.
    colored: Use colors.
    plain: No colors.
`
	sig, err := Get[*testCtx](fn, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"text", "json"}, sig.Arguments[1].Choices)

	scope := new(recordingScope)
	require.NoError(t, sig.SetupParser(scope))
	assert.Equal(t, []string{"format"}, scope.added)
	assert.Equal(t, [][]string{{"quiet", "verbose"}, {"colored", "plain"}}, scope.groups)
	require.NotNil(t, scope.dispatch)
	require.NoError(t, scope.dispatch(new(testCtx), Values{"quiet": true}))
}

func TestAnnotator(t *testing.T) {
	t.Parallel()

	sig, err := Get[*testCtx](annotated, "Annotated.\n\nArgs:\n  level: Log level.\n  files: Input files.\n")
	require.NoError(t, err)
	level := sig.Arguments[0]
	assert.Equal(t, []string{"--level", "-l"}, level.Aliases)
	assert.Equal(t, []string{"debug", "info"}, level.Choices)
	assert.True(t, level.Required)
	assert.Equal(t, "LVL", level.Metavar)

	files := sig.Arguments[1]
	assert.Equal(t, KindPositional, files.Kind)
	assert.Equal(t, NargsMany, files.Nargs)
	assert.Equal(t, ActionStore, files.Action)

	_, err = Get[*testCtx](conflicting, "Conflict.\n\nArgs:\n  level: Log level.\n")
	require.Error(t, err)
	assert.ErrorContains(t, err, `parameter "level" is annotated by both its arg tag and ArgAnnotations`)
}

type annotatedParams struct {
	Level string `default:"info"`
	Files []string
}

func (annotatedParams) ArgAnnotations() map[string]ArgumentAnnotation {
	return map[string]ArgumentAnnotation{
		"level": Arg(WithAliases("-l", "--level"), WithChoices("debug", "info"), WithRequired(true), WithMetavar("LVL")),
		"files": Arg(WithNargs(NargsMany)),
	}
}

func annotated(ctx *testCtx, p annotatedParams) error { return nil }

type conflictingParams struct {
	Level string `default:"info" arg:"aliases=-l"`
}

func (conflictingParams) ArgAnnotations() map[string]ArgumentAnnotation {
	return map[string]ArgumentAnnotation{"level": Arg(WithMetavar("X"))}
}

func conflicting(ctx *testCtx, p conflictingParams) error { return nil }

func missingDoc(ctx *testCtx, p struct{ Name string }) error { return nil }

func TestMissingParameterDoc(t *testing.T) {
	t.Parallel()

	_, err := Get[*testCtx](missingDoc, "Greet someone.\n\nArgs:\n  ctx: The context.\n")
	require.Error(t, err)
	var sigErr *Error
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, "github.com/mfridman/sigcli/pkg/signature.missingDoc", sigErr.Func)
	var paramErr *ParameterError
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, "name", paramErr.Name)
	assert.Equal(t, KindPositional, paramErr.Kind)
	assert.Equal(t,
		`github.com/mfridman/sigcli/pkg/signature.missingDoc: positional parameter "name" has no description in the docstring which is required to generate the help message`,
		err.Error(),
	)
}

func TestGetFunctionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   any
		doc  string
		want string
	}{
		{"not a function", "nope", "Doc.", "string: not a function"},
		{"nil", nil, "Doc.", "not a function"},
		{"no docstring", func(ctx *testCtx) error { return nil }, "  \n", "function has no docstring"},
		{"no parameters", func() error { return nil }, "Doc.", "function must have at least one parameter"},
		{"wrong context", func(ctx context.Context) error { return nil }, "Doc.",
			"first parameter must be of type *signature.testCtx, found context.Context"},
		{"too many parameters", func(ctx *testCtx, a, b struct{}) error { return nil }, "Doc.",
			"at most one parameters struct"},
		{"no error result", func(ctx *testCtx) {}, "Doc.", "function must return exactly one error"},
		{"variadic function", func(ctx *testCtx, s ...string) error { return nil }, "Doc.", "variadic functions are not supported"},
		{"parameters not a struct", func(ctx *testCtx, s string) error { return nil }, "Doc.",
			"parameters must be a struct or pointer to struct, found string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Get[*testCtx](tt.fn, tt.doc)
			require.Error(t, err)
			var sigErr *Error
			require.ErrorAs(t, err, &sigErr)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestGetParameterErrors(t *testing.T) {
	t.Parallel()

	const doc = "Do it.\n\nArgs:\n    x: The x.\n    y: The y.\n"
	tests := []struct {
		name string
		fn   any
		want string
	}{
		{"optional of optional", func(ctx *testCtx, p struct {
			X **string `default:""`
		}) error {
			return nil
		}, `flag parameter "x" must be a single optional type`},
		{"interface", func(ctx *testCtx, p struct {
			X any `default:""`
		}) error {
			return nil
		}, `flag parameter "x" has more than two types`},
		{"map", func(ctx *testCtx, p struct {
			X map[string]string `default:""`
		}) error {
			return nil
		}, `flag parameter "x" has more than one type`},
		{"list of optional", func(ctx *testCtx, p struct {
			X []*string `default:""`
		}) error {
			return nil
		}, `flag parameter "x" has more than one type`},
		{"nested list", func(ctx *testCtx, p struct {
			X [][]string `default:""`
		}) error {
			return nil
		}, "unsupported nested container type"},
		{"unsupported type", func(ctx *testCtx, p struct {
			X chan int `default:""`
		}) error {
			return nil
		}, "has unsupported type chan int"},
		{"group on positional", func(ctx *testCtx, p struct {
			X string `arg:"group=g"`
		}) error {
			return nil
		}, `positional parameter "x" cannot be in a mutually exclusive group`},
		{"aliases on positional", func(ctx *testCtx, p struct {
			X string `arg:"aliases=-x"`
		}) error {
			return nil
		}, `positional parameter "x" cannot have aliases`},
		{"variadic not a slice", func(ctx *testCtx, p struct {
			X string `arg:",variadic"`
		}) error {
			return nil
		}, `variadic parameter "x" must be a slice`},
		{"positional after variadic", func(ctx *testCtx, p struct {
			X []string `arg:",variadic"`
			Y string
		}) error {
			return nil
		}, `positional parameter "y" cannot follow variadic parameter "x"`},
		{"enum choices not members", func(ctx *testCtx, p struct {
			X Color `default:"" arg:"choices=red|purple"`
		}) error {
			return nil
		}, "has choices and they are not of the same type as the enum: purple"},
		{"invalid default", func(ctx *testCtx, p struct {
			X int `default:"abc"`
		}) error {
			return nil
		}, `flag parameter "x" has invalid default`},
		{"nargs on scalar", func(ctx *testCtx, p struct {
			X string `default:"" arg:"nargs=+"`
		}) error {
			return nil
		}, "nargs + requires a slice"},
		{"slice with store and no nargs", func(ctx *testCtx, p struct {
			X []string `default:"" arg:"action=store"`
		}) error {
			return nil
		}, "needs nargs or an append action"},
		{"unknown tag option", func(ctx *testCtx, p struct {
			X string `arg:"bogus=1"`
		}) error {
			return nil
		}, `unknown arg tag option "bogus"`},
		{"store_true on string", func(ctx *testCtx, p struct {
			X string `default:"" arg:"action=store_true"`
		}) error {
			return nil
		}, "action store_true requires a boolean flag"},
		{"invalid choice for type", func(ctx *testCtx, p struct {
			X int `default:"" arg:"choices=a"`
		}) error {
			return nil
		}, `has invalid choice "a"`},
		{"duplicate name", func(ctx *testCtx, p struct {
			X string
			Y string `arg:"name=x"`
		}) error {
			return nil
		}, `duplicate parameter name "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Get[*testCtx](tt.fn, doc)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestBuildAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		kind    Kind
		param   string
		aliases []string
		want    []string
	}{
		{"positional", KindPositional, "path", nil, []string{"path"}},
		{"positional empty aliases", KindPositional, "path", []string{}, []string{"path"}},
		{"flag default", KindFlag, "dry_run", nil, []string{"--dry-run"}},
		{"flag extra", KindFlag, "dry_run", []string{"-n"}, []string{"--dry-run", "-n"}},
		{"flag default moved first", KindFlag, "dry_run", []string{"-n", "--dry-run", "-d"}, []string{"--dry-run", "-n", "-d"}},
		{"flag default already first", KindFlag, "dry_run", []string{"--dry-run", "-n"}, []string{"--dry-run", "-n"}},
		{"flag empty aliases", KindFlag, "level", []string{}, []string{"--level"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := buildAliases(tt.kind, tt.param, tt.aliases)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := buildAliases(KindVariadic, "files", []string{"-f"})
	require.Error(t, err)
	_, err = buildAliases(KindFlag, "level", []string{"level"})
	require.Error(t, err)
}

type recordingScope struct {
	added    []string
	groups   [][]string
	dispatch func(*testCtx, Values) error
}

func (r *recordingScope) AddArgument(arg *Argument) error {
	r.added = append(r.added, arg.Name)
	return nil
}

func (r *recordingScope) AddMutuallyExclusiveGroup() ArgumentAdder {
	r.groups = append(r.groups, nil)
	return &recordingGroup{scope: r, index: len(r.groups) - 1}
}

func (r *recordingScope) SetDefaults(dispatch func(*testCtx, Values) error) {
	r.dispatch = dispatch
}

type recordingGroup struct {
	scope *recordingScope
	index int
}

func (g *recordingGroup) AddArgument(arg *Argument) error {
	g.scope.groups[g.index] = append(g.scope.groups[g.index], arg.Name)
	return nil
}

type Tier string

func (Tier) EnumMembers() []EnumMember {
	return []EnumMember{{Name: "FREE", Value: Tier("free-tier")}, {Name: "PRO", Value: Tier("pro-tier")}}
}

type Level uint8

func (Level) EnumMembers() []EnumMember {
	return []EnumMember{{Name: "LOW", Value: Level(1)}, {Name: "HIGH", Value: Level(9)}}
}

func (l Level) String() string {
	if l == 9 {
		return "high level"
	}
	return "low level"
}

func TestEnumValueLookup(t *testing.T) {
	t.Parallel()

	fn := func(ctx *testCtx, p struct {
		Tier  Tier  `default:"free"`
		Level Level `default:"low"`
	}) error {
		return nil
	}
	sig, err := Get[*testCtx](fn, "Pick.\n\nArgs:\n  tier: The tier.\n  level: The level.\n")
	require.NoError(t, err)
	tier, level := sig.Arguments[0], sig.Arguments[1]
	assert.Equal(t, Tier("free-tier"), tier.Default)
	assert.Equal(t, Level(1), level.Default)

	tests := []struct {
		arg         *Argument
		name, value string
		want        any
	}{
		{tier, "Pro", "pro-tier", Tier("pro-tier")},
		{level, "high", "9", Level(9)},
		{level, "LOW", "1", Level(1)},
	}
	for _, tt := range tests {
		byName, err := tt.arg.Convert(tt.name)
		require.NoError(t, err)
		byValue, err := tt.arg.Convert(tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, byName)
		assert.Equal(t, byName, byValue)
	}

	_, err = level.Convert("high level")
	require.Error(t, err)
	assert.ErrorContains(t, err, "Available choices are 'low', 'high'")
}

func TestRequiredOverrideOnPositional(t *testing.T) {
	t.Parallel()

	fn := func(ctx *testCtx, p struct {
		Path  string   `arg:"required"`
		Extra []string `arg:",variadic,required=false"`
		Token string   `default:"" arg:"required"`
	}) error {
		return nil
	}
	sig, err := Get[*testCtx](fn, "Read.\n\nArgs:\n  path: File to read.\n  extra: More files.\n  token: Auth token.\n")
	require.NoError(t, err)
	require.Len(t, sig.Arguments, 3)
	assert.False(t, sig.Arguments[0].Required)
	assert.False(t, sig.Arguments[1].Required)
	assert.True(t, sig.Arguments[2].Required)
}
