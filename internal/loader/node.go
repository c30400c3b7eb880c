// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/iod/internal/runtime"
)

const (
	// DefaultNodeBinary is the node executable NodeLoader runs.
	DefaultNodeBinary = "node"

	envFrom    = "IOD_RESOLVE_FROM"
	envRequest = "IOD_RESOLVE_REQUEST"
	envName    = "IOD_RESOLVE_NAME"
	envImport  = "IOD_RESOLVE_IMPORT"

	// esmResolveScript resolves IOD_RESOLVE_REQUEST with the import
	// conditions, relative to the working directory.
	esmResolveScript = `console.log(import.meta.resolve(process.env.` + envRequest + `))`

	// resolveScript resolves the request with a require function rooted at
	// IOD_RESOLVE_FROM, imports it unless told not to, and prints the entry,
	// the package root and its manifest as one JSON line. Packages that only
	// export an "import" condition are resolved by a module-mode child node.
	resolveScript = `const {createRequire}=require("module");` +
		`const path=require("path");const fs=require("fs");const url=require("url");` +
		`const cp=require("child_process");const env=process.env;` +
		`const from=path.resolve(env.` + envFrom + `);` +
		`const req=createRequire(path.join(from,"noop.js"));` +
		`let entry;try{entry=req.resolve(env.` + envRequest + `);}catch(e){` +
		`if(e.code!=="ERR_PACKAGE_PATH_NOT_EXPORTED")throw e;` +
		`entry=url.fileURLToPath(cp.execFileSync(process.execPath,` +
		`["--input-type=module","-e","` + esmResolveScript + `"],` +
		`{cwd:from,encoding:"utf8"}).trim());}` +
		`let root=path.dirname(entry),manifest={};` +
		`for(let d=root;;d=path.dirname(d)){const p=path.join(d,"package.json");` +
		`if(fs.existsSync(p)){const m=JSON.parse(fs.readFileSync(p,"utf8"));` +
		`if(!m.name||m.name===env.` + envName + `){root=d;manifest=m;break;}}` +
		`if(path.dirname(d)===d)break;}` +
		`const done=()=>console.log(JSON.stringify({entry,root,manifest}));` +
		`if(env.` + envImport + `==="1"&&!entry.endsWith(".json")){` +
		`import(url.pathToFileURL(entry).href).then(done,e=>{console.error(e&&e.stack||String(e));process.exit(1);});` +
		`}else{done();}`
)

type (
	// NodeLoader resolves and imports packages by running node.
	NodeLoader struct {
		rt   runtime.Runtime
		opts NodeOptions
	}

	// NodeOptions configures a NodeLoader.
	NodeOptions struct {
		// NodeBinary defaults to DefaultNodeBinary.
		NodeBinary string
		// BaseDir is where LoadByName resolution starts. Empty means the
		// current directory.
		BaseDir string
		// ResolveOnly skips importing the entry file.
		ResolveOnly bool
	}

	nodeReport struct {
		Entry    string   `json:"entry"`
		Root     string   `json:"root"`
		Manifest Manifest `json:"manifest"`
	}
)

// NewNodeLoader creates a NodeLoader that runs node through rt.
func NewNodeLoader(rt runtime.Runtime, opts NodeOptions) *NodeLoader {
	if opts.NodeBinary == "" {
		opts.NodeBinary = DefaultNodeBinary
	}
	if opts.BaseDir == "" {
		opts.BaseDir = "."
	}
	return &NodeLoader{rt: rt, opts: opts}
}

// LoadByName loads importPath relative to BaseDir.
func (l *NodeLoader) LoadByName(ctx context.Context, importPath string) (*Module, error) {
	mod, err := l.load(ctx, l.opts.BaseDir, importPath)
	if err != nil {
		return nil, err
	}
	mod.Source = SourceLocal
	return mod, nil
}

// LoadFromDirectory loads importPath as if required from a file inside dir.
// For an npx install dir (".../node_modules") that makes the sibling
// packages visible exactly as createRequire(dir) would.
func (l *NodeLoader) LoadFromDirectory(ctx context.Context, dir, importPath string) (*Module, error) {
	mod, err := l.load(ctx, dir, importPath)
	if err != nil {
		return nil, err
	}
	mod.Source = SourceEphemeral
	return mod, nil
}

// Command returns the command that resolves importPath from dir.
func (l *NodeLoader) Command(dir, importPath string) (runtime.Command, error) {
	script, err := syntax.Quote(resolveScript, syntax.LangPOSIX)
	if err != nil {
		return runtime.Command{}, fmt.Errorf("quote resolve script: %w", err)
	}

	importFlag := "1"
	if l.opts.ResolveOnly {
		importFlag = "0"
	}

	return runtime.Command{
		Line:  l.opts.NodeBinary + " -e " + script,
		Shell: true,
		Env: map[string]string{
			envFrom:    dir,
			envRequest: importPath,
			envName:    packageName(importPath),
			envImport:  importFlag,
		},
	}, nil
}

func (l *NodeLoader) load(ctx context.Context, dir, importPath string) (*Module, error) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	cmd, err := l.Command(dir, importPath)
	if err != nil {
		return nil, err
	}

	res := l.rt.Run(ctx, cmd)
	if res.Failed() {
		return nil, &ModuleNotFoundError{ImportPath: importPath, From: dir, Cause: res.Err()}
	}

	var report nodeReport
	if err := json.Unmarshal([]byte(lastLine(res.Output)), &report); err != nil {
		return nil, &ModuleNotFoundError{
			ImportPath: importPath,
			From:       dir,
			Cause:      fmt.Errorf("unreadable resolver output: %w", err),
		}
	}

	name := report.Manifest.Name
	if name == "" {
		name = packageName(importPath)
	}
	return &Module{
		ImportPath: importPath,
		Name:       name,
		Version:    report.Manifest.Version,
		Root:       report.Root,
		Entry:      report.Entry,
		Manifest:   report.Manifest,
	}, nil
}

// lastLine skips anything the imported module printed while loading.
func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
