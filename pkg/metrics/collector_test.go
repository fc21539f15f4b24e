package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/pyscan/pkg/models"
	"github.com/panbanda/pyscan/pkg/parser"
)

func collect(t *testing.T, source string) models.FileMetrics {
	t.Helper()
	p := parser.New()
	defer p.Close()

	result, err := p.Parse([]byte(source), "pkg/mod.py")
	require.NoError(t, err)
	defer result.Close()

	return Collect(result)
}

func TestCollect_Basic(t *testing.T) {
	source := `
import os
import sys

class TestClass:
    def method_one(self, x):
        if x > 0:
            return True
        return False

def standalone_func(a, b, c):
    for i in range(10):
        print(i)
`
	m := collect(t, source)

	assert.Equal(t, "pkg/mod.py", m.File)
	assert.Equal(t, 1, m.Classes)
	assert.Equal(t, 2, m.Functions)
	assert.Equal(t, []string{"os", "sys"}, m.Imports)
	require.Len(t, m.FunctionMetrics, 2)

	assert.Equal(t, models.FunctionMetric{Name: "method_one", Line: 6, Complexity: 2, ArgsCount: 2}, m.FunctionMetrics[0])
	assert.Equal(t, models.FunctionMetric{Name: "standalone_func", Line: 11, Complexity: 2, ArgsCount: 3}, m.FunctionMetrics[1])
	assert.Equal(t, m.LOC-m.Blank-m.Comment, m.CodeOnly)
}

func TestCollect_Complexity(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"straight line", "def f():\n    return 1\n", 1},
		{"if elif else", "def f(x):\n    if x:\n        pass\n    elif y:\n        pass\n    else:\n        pass\n", 3},
		{"loops", "def f():\n    for i in x:\n        while i:\n            pass\n", 3},
		{"try with", "def f():\n    try:\n        with open(p) as fh:\n            pass\n    except OSError:\n        pass\n", 3},
		{"ternary not counted", "def f(x):\n    return 1 if x else 2\n", 1},
		{"comprehension not counted", "def f(xs):\n    return [x for x in xs if x]\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := collect(t, tt.source)
			require.NotEmpty(t, m.FunctionMetrics)
			assert.Equal(t, tt.want, m.FunctionMetrics[0].Complexity)
		})
	}
}

func TestCollect_NestedFunctionsCountedInOuter(t *testing.T) {
	source := "def outer():\n    if a:\n        pass\n    def inner():\n        while b:\n            pass\n"
	m := collect(t, source)
	require.Len(t, m.FunctionMetrics, 2)

	assert.Equal(t, "outer", m.FunctionMetrics[0].Name)
	assert.Equal(t, 3, m.FunctionMetrics[0].Complexity)
	assert.Equal(t, "inner", m.FunctionMetrics[1].Name)
	assert.Equal(t, 2, m.FunctionMetrics[1].Complexity)
}

func TestCollect_ComplexityAtLeastOne(t *testing.T) {
	m := collect(t, "def a(): pass\nasync def b(): pass\nclass C:\n    def d(self): ...\n")
	require.Len(t, m.FunctionMetrics, 3)
	for _, fn := range m.FunctionMetrics {
		assert.GreaterOrEqual(t, fn.Complexity, 1, fn.Name)
	}
}

func TestCollect_Imports(t *testing.T) {
	source := `from __future__ import annotations
import os.path as p, json
import os.path
from . import sibling
from ..pkg import thing
from collections import abc, OrderedDict
`
	m := collect(t, source)
	assert.Equal(t, []string{"__future__", "collections", "json", "os.path", "pkg"}, m.Imports)
}

func TestCollect_EmptyFile(t *testing.T) {
	m := collect(t, "")
	assert.Zero(t, m.LOC)
	assert.NotNil(t, m.Imports)
	assert.NotNil(t, m.FunctionMetrics)
	assert.Empty(t, m.FunctionMetrics)
}

func TestCollect_ArgsCountIncludesReceiver(t *testing.T) {
	m := collect(t, "class A:\n    def f(self, a, *args, b, **kw):\n        pass\n")
	require.Len(t, m.FunctionMetrics, 1)
	assert.Equal(t, 2, m.FunctionMetrics[0].ArgsCount)
}
