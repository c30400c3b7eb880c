// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	InvalidSpecifierId Id = iota + 1
	InstallerUnavailableId
	InstallerTooOldId
	InstallFailedId
	EphemeralDirectoryNotFoundId
	UnexpectedInstallLayoutId
	LoadAfterInstallFailedId
	ConfigLoadFailedId
	RuntimeNotAvailableId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation about this failure
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the help page with the given glamour style ("dark",
// "light", "notty", ...), followed by its links.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	invalidSpecifierIssue = &Issue{
		id: InvalidSpecifierId,
		mdMsg: `
# Invalid package specifier!

A specifier has the shape ` + "`[@scope/]name[@version][/subpath]`" + `, and each
package may appear only once per call.

## Things you can try:
- Check the package name for typos and uppercase-only characters
- Request two versions of the same package in separate calls
- Quote ranges so your shell does not interpret them:
~~~
$ iod resolve 'left-pad@>1.0.0'
~~~`,
		docLinks: []HttpLink{"https://docs.npmjs.com/cli/v10/configuring-npm/package-json#name"},
	}

	installerUnavailableIssue = &Issue{
		id: InstallerUnavailableId,
		mdMsg: `
# npx could not be executed!

Missing packages are installed temporarily with npx, which ships with npm.

## Things you can try:
- Install Node.js (which includes npm and npx)
- Check that npx is in your PATH:
~~~
$ npx --version
~~~

- Point iod at another installer binary:
~~~cue
installer: binary: "/usr/local/bin/npx"
~~~`,
		extLinks: []HttpLink{"https://nodejs.org/en/download"},
	}

	installerTooOldIssue = &Issue{
		id: InstallerTooOldId,
		mdMsg: `
# npm is too old!

Temporary installs rely on ` + "`npx -y -p`" + `, which needs npm 8 or newer.

## Things you can try:
- Upgrade npm:
~~~
$ npm install -g npm@latest
~~~

- Or install the package locally with the command shown above`,
		extLinks: []HttpLink{"https://docs.npmjs.com/cli/v10/commands/npx"},
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Temporary install failed!

npx could not install the requested packages. The installer output is shown above.

## Common causes:
- A typo in the package name or a version that does not exist
- No network access to the npm registry
- A private registry that needs authentication in ~/.npmrc

## Things you can try:
- Check that the version exists:
~~~
$ npm view <name> versions
~~~`,
	}

	ephemeralDirectoryNotFoundIssue = &Issue{
		id: EphemeralDirectoryNotFoundId,
		mdMsg: `
# Temporary install directory not found!

npx succeeded, but none of the PATH entries it printed points into its cache
(` + "`~/.npm/_npx/`" + `). The candidates that were checked are listed above.

## Things you can try:
- Check whether a custom npm cache location is configured:
~~~
$ npm config get cache
~~~

- Install the package locally with the command shown above`,
	}

	unexpectedInstallLayoutIssue = &Issue{
		id: UnexpectedInstallLayoutId,
		mdMsg: `
# Unexpected install layout!

The npx cache entry on PATH is expected to be a ` + "`node_modules/.bin`" + ` directory.
This npm version lays out its cache differently.

## Things you can try:
- Upgrade or downgrade npm to a mainstream release
- Install the package locally with the command shown above`,
	}

	loadAfterInstallFailedIssue = &Issue{
		id: LoadAfterInstallFailedId,
		mdMsg: `
# Package installed but could not be loaded!

The package was installed into a temporary directory but loading it from
there failed. It may throw while loading, or its entry point is not
reachable by this loader.

## Things you can try:
- Try the other loader backend:
~~~
$ IOD_LOADER=fs iod which <package>
~~~

- Install the package locally with the command shown above`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded!

## Things you can try:
- Show where iod looks for its configuration:
~~~
$ iod config path
~~~

- Check ` + "`IOD_*`" + ` environment variables for invalid values
- Write a fresh default configuration:
~~~
$ iod config init
~~~`,
	}

	runtimeNotAvailableIssue = &Issue{
		id: RuntimeNotAvailableId,
		mdMsg: `
# Runtime not available!

The selected runtime cannot run installer commands on this system.

## Things you can try:
- Use the built-in shell interpreter instead:
~~~cue
runtime: "virtual"
~~~

- Or point the native runtime at an installed shell:
~~~cue
shell: "/bin/bash"
~~~`,
	}

	issues = map[Id]*Issue{
		invalidSpecifierIssue.Id():           invalidSpecifierIssue,
		installerUnavailableIssue.Id():       installerUnavailableIssue,
		installerTooOldIssue.Id():            installerTooOldIssue,
		installFailedIssue.Id():              installFailedIssue,
		ephemeralDirectoryNotFoundIssue.Id(): ephemeralDirectoryNotFoundIssue,
		unexpectedInstallLayoutIssue.Id():    unexpectedInstallLayoutIssue,
		loadAfterInstallFailedIssue.Id():     loadAfterInstallFailedIssue,
		configLoadFailedIssue.Id():           configLoadFailedIssue,
		runtimeNotAvailableIssue.Id():        runtimeNotAvailableIssue,
	}
)

// Values returns every issue, ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
