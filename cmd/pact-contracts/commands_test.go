package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const userContract = `{
	"description": "get user",
	"request": {"method": "GET", "path": "/users/1"},
	"response": {
	  "status": 200,
	  "headers": {"Content-Type": "application/json"},
	  "body": {"id": 1, "name": "bob"},
	  "matchingRules": {"$.body.id": {"match": "integer"}}
	}
  }`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	file := writeFile(t, "user.json", userContract)

	out, err := run("resolve", file)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.Get(out, "0.response.body.id").Int())
	assert.False(t, gjson.Get(out, "0.response.matchingRules").Exists())

	out, err = run("resolve", "--mode", "producer", file)
	require.NoError(t, err)
	assert.Equal(t, "integer", gjson.Get(out, `0.response.matchingRules.$\.body\.id.match`).String())

	_, err = run("resolve", "--mode", "sideways", file)
	assert.Error(t, err)
}

func TestResolvePactFile(t *testing.T) {
	file := writeFile(t, "pact.json", `{
		"consumer": {"name": "web"},
		"provider": {"name": "users"},
		"interactions": [`+userContract+`],
		"messages": [{"description": "user created", "contents": {"id": 1}}]
	  }`)

	out, err := run("resolve", file)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.Get(out, "#").Int())
	assert.Equal(t, "users", gjson.Get(out, "1.source").String())
}

func TestVerifyCommand(t *testing.T) {
	file := writeFile(t, "user.json", userContract)

	out, err := run("verify", file, writeFile(t, "ok.json", `{"id": 7, "name": "bob"}`))
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	out, err = run("verify", file, writeFile(t, "bad.json", `{"id": "seven", "name": "bob"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 violations")
	assert.Contains(t, out, "$.id")

	_, err = run("verify", "--part", "output", file, writeFile(t, "ok.json", `{}`))
	assert.Error(t, err)
}

func TestVerifyYAMLMessage(t *testing.T) {
	file := writeFile(t, "message.yaml", `
description: user created
source: users
destination: mailer
contents:
  id: 1
`)

	out, err := run("verify", file, writeFile(t, "message.json", `{"id": 1}`))
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}

func TestPatternsCommand(t *testing.T) {
	out, err := run("patterns")
	require.NoError(t, err)
	assert.Contains(t, out, "any_uuid")
	assert.Contains(t, out, "any_email")
}

func TestUnknownPolicy(t *testing.T) {
	file := writeFile(t, "user.json", userContract)
	_, err := run("resolve", "--policy", "coin-toss", file)
	assert.Error(t, err)
}
