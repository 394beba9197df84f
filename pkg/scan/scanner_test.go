package scan

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/depsync/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanDiscoversAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.js", `
const express = require('express');
const _ = require('lodash');
const helper = require('./lib/helper');
`)
	writeFile(t, dir, "lib/helper.ts", `
import _ from "lodash";
import { Router } from "express";
import fs from "node:fs";
export { thing } from "@babel/core/lib/thing";
`)

	got, err := Scan(dir, Options{})
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []string{"@babel/core", "express", "lodash"}
	if !slices.Equal(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScanSkipsExcludedDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", `require('react');`)
	writeFile(t, dir, "node_modules/evil/index.js", `require('should-not-appear');`)
	writeFile(t, dir, ".git/hook.js", `require('also-hidden');`)

	got, err := Scan(dir, Options{})
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if !slices.Equal(got, []string{"react"}) {
		t.Errorf("Scan() = %v, want [react]", got)
	}
}

func TestScanExtraExcludesAndIgnores(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/a.js", `require('keep'); require('drop');`)
	writeFile(t, dir, "vendor/b.js", `require('vendored');`)

	got, err := Scan(dir, Options{
		ExcludeDirs: []string{"vendor"},
		Ignore:      []string{"drop"},
	})
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if !slices.Equal(got, []string{"keep"}) {
		t.Errorf("Scan() = %v, want [keep]", got)
	}
}

func TestScanSkipsNonSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", `require('not-code')`)
	writeFile(t, dir, "data.json", `{"require": "nope"}`)

	got, err := Scan(dir, Options{})
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Scan() = %v, want empty", got)
	}
}

func TestScanEmptyTree(t *testing.T) {
	got, err := Scan(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Scan() = %v, want empty", got)
	}
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), Options{})
	if err == nil {
		t.Fatal("Scan() error = nil, want INVALID_PATH")
	}
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("error code = %v, want INVALID_PATH", errors.GetCode(err))
	}
}

func TestScanRootIsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file.js", "")

	_, err := Scan(filepath.Join(dir, "file.js"), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("error code = %v, want INVALID_PATH", errors.GetCode(err))
	}
}

func TestScanDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.js", `require('zeta'); require('alpha');`)
	writeFile(t, dir, "b.js", `require('mid');`)

	first, err := Scan(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Scan(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(first, second) {
		t.Errorf("Scan() not deterministic: %v vs %v", first, second)
	}
}
