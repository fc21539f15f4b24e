package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeAnalyze() string {
	return `Runs the full Python analysis: rule checks plus per-file and per-function metrics.

USE WHEN:
- Reviewing a Python change before it is merged
- Getting an overview of a package's size and complexity
- Checking a snippet of Python code passed inline via "code"
- Comparing the state of a git revision via "ref"

INTERPRETING RESULTS:
- Issue types: Maintainability, Security, Code_Smell
- Maintainability: a function takes more than 6 positional parameters (self/cls excluded)
- Security: eval/exec calls, or string literals that look like credentials
- Code_Smell: an except block whose only statement is pass
- Function complexity is 1 plus each if, elif, for, while, try and with statement inside it
- Complexity > 10: consider splitting the function
- diagnostics list files that could not be read or parsed; they have no metrics

METRICS RETURNED:
- files: LOC, blank, comment, codeOnly, classes, functions, imports, functionMetrics
- issues: file, line, type, description in traversal order
- summary: counts per issue type`
}

func describeIssues() string {
	return `Lists rule violations found in Python code, optionally filtered by category.

USE WHEN:
- Looking for hardcoded secrets or dynamic code execution
- Finding swallowed exceptions
- Auditing function signatures that are too wide

INTERPRETING RESULTS:
- Each issue names the file and the 1-based line of the offending node
- Security issues deserve review first; a literal match is a heuristic, not proof
- Code_Smell issues are cheap to fix: log or re-raise instead of pass
- Summary counts reflect the filter

METRICS RETURNED:
- issues: file, line, type, description
- summary: counts per issue type
- diagnostics: skipped files with the stage that failed`
}

func describeMetrics() string {
	return `Reports size and structure metrics for Python files without the issue list.

USE WHEN:
- Finding the largest or most complex modules
- Listing functions with many arguments or high complexity
- Checking which modules a file imports

INTERPRETING RESULTS:
- codeOnly is LOC minus blank and comment lines
- complexity is per function and always at least 1
- argsCount counts positional parameters, self and cls included

METRICS RETURNED:
- Per-file: LOC, blank, comment, codeOnly, classes, functions, imports
- Per-function: name, line, complexity, argsCount
- functions_only returns a flat function list tagged with its file`
}
