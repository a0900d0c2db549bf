package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopplan/internal/plan"
)

func TestParseDeclaration(t *testing.T) {
	d, err := ParseDeclaration("buf []float64 = make([]float64, 4)")
	require.NoError(t, err)

	assert.Equal(t, "buf", d.Name)
	assert.Equal(t, "[]float64", d.Type)
	assert.Equal(t, "make([]float64, 4)", d.Expr)

	v, err := d.Init()
	require.NoError(t, err)
	buf, ok := v.([]float64)
	require.True(t, ok, "got %T", v)
	assert.Len(t, buf, 4)
}

func TestParseDeclarationEvaluatesFreshEachCall(t *testing.T) {
	d, err := ParseDeclaration("buf []int = make([]int, 2)")
	require.NoError(t, err)

	first, err := d.Init()
	require.NoError(t, err)
	first.([]int)[0] = 99

	second, err := d.Init()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, second)
}

func TestParseDeclarationWithStdlib(t *testing.T) {
	d, err := ParseDeclaration(`s string = strings.Repeat("ab", 2)`)
	require.NoError(t, err)

	v, err := d.Init()
	require.NoError(t, err)
	assert.Equal(t, "abab", v)
}

func TestParseDeclarationScalar(t *testing.T) {
	d, err := ParseDeclaration("acc int = 40 + 2")
	require.NoError(t, err)
	assert.Equal(t, "40 + 2", d.Expr)

	v, err := d.Init()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestParseDeclarationMalformed(t *testing.T) {
	for _, src := range []string{
		"",
		"buf",
		"buf []float64",
		"buf = make([]float64, 4)",
		"a, b int = 1, 2",
		"_ int = 1",
		"x int = 1; y int = 2",
		"x int = (",
		"x int = 1\ny int = 2",
		`x int = "not an int"`,
	} {
		_, err := ParseDeclaration(src)
		requireCause(t, err, plan.CauseMalformedBinding)
	}
}

func TestParseDeclarationFeedsCompile(t *testing.T) {
	d, err := ParseDeclaration("seen map[string]bool = map[string]bool{}")
	require.NoError(t, err)

	p, err := testCompiler().Compile([]Directive{d}, nil)
	require.NoError(t, err)

	b, err := p.Binding(0)
	require.NoError(t, err)
	assert.Equal(t, "map[string]bool", b.Type)
	assert.Equal(t, "map[string]bool{}", b.Expr)
}
