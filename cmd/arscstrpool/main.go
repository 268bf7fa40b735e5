// Command arscstrpool is a small driver over the string-pool codec: dump
// a chunk's strings, copy one through unmodified, or rewrite it against a
// JSON rename plan and seal the result's manifest. File I/O, flag
// parsing, and process exit codes live here, not in the codec packages.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/jessie345/arsc-strpool/internal/binario"
	"github.com/jessie345/arsc-strpool/internal/cache"
	"github.com/jessie345/arsc-strpool/internal/config"
	"github.com/jessie345/arsc-strpool/internal/manifestio"
	"github.com/jessie345/arsc-strpool/internal/planio"
	"github.com/jessie345/arsc-strpool/internal/seal"
	"github.com/jessie345/arsc-strpool/rewrite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case "dump":
		err = runDump(os.Args[2:])
	case "copy":
		err = runCopy(os.Args[2:])
	case "rewrite-spec":
		err = runRewriteSpec(os.Args[2:])
	case "rewrite-table":
		err = runRewriteTable(os.Args[2:])
	case "verify-manifest":
		err = runVerifyManifest(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "arscstrpool:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: arscstrpool dump|copy|rewrite-spec|rewrite-table|verify-manifest ...")
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	pool, err := rewrite.Read(binario.NewReader(f))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	fmt.Printf("count=%d utf8=%v has_styles=%v\n", pool.Count(), pool.IsUTF8(), pool.HasStyles())
	for i := 0; i < pool.Count(); i++ {
		s, ok := pool.Get(i)
		if !ok {
			fmt.Printf("%d: <malformed>\n", i)
			continue
		}
		fmt.Printf("%d: %q\n", i, s)
	}
	return nil
}

func runCopy(args []string) error {
	fs := flag.NewFlagSet("copy", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(1)
	}
	in, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(fs.Arg(1))
	if err != nil {
		return err
	}
	defer out.Close()

	return rewrite.WriteAll(binario.NewReader(in), binario.NewWriter(out))
}

func runRewriteSpec(args []string) error {
	fs := flag.NewFlagSet("rewrite-spec", flag.ExitOnError)
	keyHex := fs.String("key", "", "32-byte manifest seal key, hex")
	nonceHex := fs.String("nonce", "", "24-byte manifest seal nonce, hex")
	manifestPath := fs.String("manifest", "", "sealed manifest output path")
	configPath := fs.String("config", "", "optional YAML config (whitelist, cache path)")
	fs.Parse(args)
	if fs.NArg() != 3 || *keyHex == "" || *nonceHex == "" {
		fs.Usage()
		os.Exit(1)
	}
	inPath, outPath, planPath := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	cfg, err := loadOptionalConfig(*configPath)
	if err != nil {
		return err
	}

	planData, err := os.ReadFile(planPath)
	if err != nil {
		return err
	}
	names, err := planio.LoadSpecNamePlan(planData)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	names = cfg.FilterSpecNames(names)

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	r := binario.NewReader(in)
	offset := uint32(r.Pos())
	remaining, assigned, originalSize, newSize, err := rewrite.RewriteSpecNames(r, binario.NewWriter(out), names)
	if err != nil {
		return fmt.Errorf("rewrite-spec: %w", err)
	}
	fmt.Printf("rewrote %d names, enclosing chunk size delta %d\n", len(assigned), remaining)

	if cfg != nil && cfg.CachePath != "" {
		store, err := cache.Open(cfg.CachePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveAssignments(inPath+"#spec", assigned); err != nil {
			return err
		}
	}

	if *manifestPath != "" {
		key, nonce, err := parseKeyNonce(*keyHex, *nonceHex)
		if err != nil {
			return err
		}
		m := seal.Manifest{Chunks: []seal.ChunkRewrite{{
			Offset:       offset,
			Kind:         "spec-name",
			OriginalSize: originalSize,
			NewSize:      newSize,
		}}}
		return manifestio.WriteSealed(*manifestPath, m, key, nonce)
	}
	return nil
}

func runRewriteTable(args []string) error {
	fs := flag.NewFlagSet("rewrite-table", flag.ExitOnError)
	keyHex := fs.String("key", "", "32-byte manifest seal key, hex")
	nonceHex := fs.String("nonce", "", "24-byte manifest seal nonce, hex")
	manifestPath := fs.String("manifest", "", "sealed manifest output path")
	configPath := fs.String("config", "", "optional YAML config (whitelist, cache path)")
	fs.Parse(args)
	if fs.NArg() != 3 || *keyHex == "" || *nonceHex == "" {
		fs.Usage()
		os.Exit(1)
	}
	inPath, outPath, planPath := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	cfg, err := loadOptionalConfig(*configPath)
	if err != nil {
		return err
	}

	planData, err := os.ReadFile(planPath)
	if err != nil {
		return err
	}
	plan, err := planio.LoadTableNamePlan(planData)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	plan = cfg.FilterTableNames(plan)

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	r := binario.NewReader(in)
	offset := uint32(r.Pos())
	remaining, originalSize, newSize, err := rewrite.RewriteTableNames(r, binario.NewWriter(out), plan)
	if err != nil {
		return fmt.Errorf("rewrite-table: %w", err)
	}
	fmt.Printf("rewrote %d names, enclosing chunk size delta %d\n", len(plan), remaining)

	if *manifestPath != "" {
		key, nonce, err := parseKeyNonce(*keyHex, *nonceHex)
		if err != nil {
			return err
		}
		m := seal.Manifest{Chunks: []seal.ChunkRewrite{{
			Offset:       offset,
			Kind:         "table-name",
			OriginalSize: originalSize,
			NewSize:      newSize,
		}}}
		return manifestio.WriteSealed(*manifestPath, m, key, nonce)
	}
	return nil
}

func runVerifyManifest(args []string) error {
	fs := flag.NewFlagSet("verify-manifest", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(1)
	}
	manifestPath, keyHex := fs.Arg(0), fs.Arg(1)

	key, err := parseKey(keyHex)
	if err != nil {
		return err
	}
	m, nonce, tag, err := manifestio.ReadSealed(manifestPath)
	if err != nil {
		return err
	}
	if err := seal.VerifyStrict(m, key, nonce, tag); err != nil {
		return err
	}
	fmt.Println("OK:", manifestPath)
	return nil
}

func loadOptionalConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, nil
	}
	return config.Load(path)
}

func parseKey(keyHex string) ([32]byte, error) {
	var key [32]byte
	b, err := hex.DecodeString(keyHex)
	if err != nil || len(b) != 32 {
		return key, fmt.Errorf("key must be 32 bytes of hex")
	}
	copy(key[:], b)
	return key, nil
}

func parseKeyNonce(keyHex, nonceHex string) ([32]byte, [24]byte, error) {
	key, err := parseKey(keyHex)
	if err != nil {
		return key, [24]byte{}, err
	}
	var nonce [24]byte
	nb, err := hex.DecodeString(nonceHex)
	if err != nil || len(nb) != 24 {
		return key, nonce, fmt.Errorf("nonce must be 24 bytes of hex")
	}
	copy(nonce[:], nb)
	return key, nonce, nil
}
