package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/pdfqr/cmd/pdfqr/cmd"
	"github.com/cucumber/godog"
)

// substituteCommandVariables replaces {dir} with the temp directory and
// fixture names with their paths.
func (testCtx *TestContext) substituteCommandVariables(command string) []string {
	command = strings.ReplaceAll(command, "{dir}", testCtx.TempDir)
	args := strings.Fields(command)
	for i, arg := range args {
		if p, ok := testCtx.Fixtures[arg]; ok {
			args[i] = p
		}
	}
	return args
}

// iRunCommand executes a fresh pdfqr command tree in-process.
func (testCtx *TestContext) iRunCommand(command string) error {
	args := testCtx.substituteCommandVariables(command)
	if len(args) == 0 || args[0] != "pdfqr" {
		return fmt.Errorf("commands must start with pdfqr: %q", command)
	}
	testCtx.LastCommand = command

	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args[1:])

	testCtx.LastError = root.Execute()
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command %q failed: %w\nOutput: %s\nStderr: %s",
			testCtx.LastCommand, testCtx.LastError, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command %q succeeded when it should have failed\nOutput: %s",
			testCtx.LastCommand, testCtx.LastOutput)
	}
	return nil
}

// theErrorShouldMention verifies the command error contains text.
func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if testCtx.LastError == nil {
		return errors.New("expected an error but the command succeeded")
	}
	if !strings.Contains(testCtx.LastError.Error(), text) {
		return fmt.Errorf("error does not mention '%s'\nActual error: %v", text, testCtx.LastError)
	}
	return nil
}

// theOutputShouldBe compares the whole output, ignoring the trailing newline.
func (testCtx *TestContext) theOutputShouldBe(expected string) error {
	actual := strings.TrimRight(testCtx.LastOutput, "\n")
	if actual != expected {
		return fmt.Errorf("output is %q, want %q", actual, expected)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBeEmpty verifies nothing was printed.
func (testCtx *TestContext) theOutputShouldBeEmpty() error {
	if testCtx.LastOutput != "" {
		return fmt.Errorf("expected no output, got %q", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldHaveLines counts non-empty output lines.
func (testCtx *TestContext) theOutputShouldHaveLines(n int) error {
	count := 0
	for _, line := range strings.Split(testCtx.LastOutput, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("output has %d lines, want %d\nActual output: %s", count, n, testCtx.LastOutput)
	}
	return nil
}

// theJSONFieldShouldBe checks a dotted path in the first JSON document of the output.
func (testCtx *TestContext) theJSONFieldShouldBe(path, expected string) error {
	return checkJSONField(testCtx.LastOutput, path, expected)
}

// theFileShouldContain verifies a written output file.
func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain '%s'\nContent: %s", name, text, data)
	}
	return nil
}

// theEnvironmentVariableIsSetTo sets a variable for the rest of the scenario.
func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	return testCtx.setEnv(name, value)
}

// checkJSONField decodes the first JSON value in body and compares the
// value at path, formatted with fmt.Sprint, to expected.
func checkJSONField(body, path, expected string) error {
	var doc any
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&doc); err != nil {
		return fmt.Errorf("output is not JSON: %w\nOutput: %s", err, body)
	}
	value, err := lookupJSON(doc, path)
	if err != nil {
		return err
	}
	if actual := fmt.Sprint(value); actual != expected {
		return fmt.Errorf("JSON field %s is %q, want %q", path, actual, expected)
	}
	return nil
}

// lookupJSON walks a path like "results.0.page".
func lookupJSON(doc any, path string) (any, error) {
	current := doc
	for _, key := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("JSON field %s: no key %q", path, key)
			}
			current = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("JSON field %s: bad index %q", path, key)
			}
			current = node[i]
		default:
			return nil, fmt.Errorf("JSON field %s: cannot descend into %T", path, current)
		}
	}
	return current, nil
}

// RegisterCLISteps registers command execution and output steps.
func (testCtx *TestContext) RegisterCLISteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the output should be "([^"]*)"$`, testCtx.theOutputShouldBe)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should be empty$`, testCtx.theOutputShouldBeEmpty)
	sc.Step(`^the output should have (\d+) lines?$`, testCtx.theOutputShouldHaveLines)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}
