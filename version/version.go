// version.go - Versionsinformation fuer Larch
package version

// Version wird beim Release-Build via -ldflags ueberschrieben
var Version = "0.0.0"
