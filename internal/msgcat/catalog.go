package msgcat

import (
    "embed"
    "errors"
    "fmt"
    "io/fs"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "sync"
    "text/template"

    yaml "gopkg.in/yaml.v3"
)

//go:embed messages.ko.yaml
var defaultFiles embed.FS

// Catalog holds flattened dot-key message templates. Embedded Korean defaults
// are loaded first; files from an override directory replace single keys.
type Catalog struct {
    mu     sync.RWMutex
    data   map[string]string
    parsed map[string]*template.Template
}

// New loads the embedded defaults and then applies overrides from dir if provided.
func New(overrideDir string) (*Catalog, error) {
    c := &Catalog{data: make(map[string]string), parsed: make(map[string]*template.Template)}
    raw, err := fs.ReadFile(defaultFiles, "messages.ko.yaml")
    if err != nil {
        return nil, fmt.Errorf("read embedded messages: %w", err)
    }
    flat, err := parseYAMLToFlat(raw)
    if err != nil {
        return nil, fmt.Errorf("parse embedded messages: %w", err)
    }
    c.merge(flat)
    if strings.TrimSpace(overrideDir) != "" {
        if err := c.applyDir(overrideDir); err != nil {
            return nil, err
        }
    }
    return c, nil
}

// MustDefault returns the embedded catalog and panics if it does not parse.
func MustDefault() *Catalog {
    c, err := New("")
    if err != nil {
        panic(err)
    }
    return c
}

func (c *Catalog) applyDir(dir string) error {
    entries, err := os.ReadDir(dir)
    if err != nil {
        return fmt.Errorf("read template dir: %w", err)
    }
    files := make([]string, 0, len(entries))
    for _, e := range entries {
        if e.IsDir() { continue }
        ext := strings.ToLower(filepath.Ext(e.Name()))
        if ext == ".yaml" || ext == ".yml" { files = append(files, e.Name()) }
    }
    sort.Strings(files)
    seen := make(map[string]string) // key -> file
    for _, name := range files {
        b, err := os.ReadFile(filepath.Join(dir, name))
        if err != nil { return fmt.Errorf("read %s: %w", name, err) }
        flat, err := parseYAMLToFlat(b)
        if err != nil { return fmt.Errorf("parse %s: %w", name, err) }
        for k := range flat {
            if prev, ok := seen[k]; ok {
                return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
            }
            seen[k] = name
        }
        c.merge(flat)
    }
    return nil
}

func (c *Catalog) merge(flat map[string]string) {
    c.mu.Lock()
    defer c.mu.Unlock()
    for k, v := range flat {
        c.data[k] = v
        delete(c.parsed, k)
    }
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
    var root yaml.Node
    if err := yaml.Unmarshal(b, &root); err != nil {
        return nil, err
    }
    flat := make(map[string]string)
    if len(root.Content) == 0 {
        return flat, nil
    }
    if err := flattenNode(root.Content[0], "", flat); err != nil {
        return nil, err
    }
    return flat, nil
}

// flattenNode walks mappings into dot keys. Only scalar string leaves are allowed.
func flattenNode(n *yaml.Node, prefix string, out map[string]string) error {
    switch n.Kind {
    case yaml.MappingNode:
        for i := 0; i+1 < len(n.Content); i += 2 {
            key := n.Content[i].Value
            if prefix != "" { key = prefix + "." + key }
            if err := flattenNode(n.Content[i+1], key, out); err != nil { return err }
        }
        return nil
    case yaml.ScalarNode:
        if prefix == "" { return errors.New("scalar value without key") }
        if n.Tag != "!!str" && n.Tag != "" {
            return fmt.Errorf("unsupported value at %s: %s", prefix, n.Tag)
        }
        out[prefix] = n.Value
        return nil
    case yaml.AliasNode:
        return flattenNode(n.Alias, prefix, out)
    default:
        return fmt.Errorf("unsupported node at %s (line %d)", prefix, n.Line)
    }
}

// Has reports whether key exists.
func (c *Catalog) Has(key string) bool {
    c.mu.RLock()
    defer c.mu.RUnlock()
    _, ok := c.data[strings.TrimSpace(key)]
    return ok
}

// Keys returns all keys in sorted order.
func (c *Catalog) Keys() []string {
    c.mu.RLock()
    keys := make([]string, 0, len(c.data))
    for k := range c.data { keys = append(keys, k) }
    c.mu.RUnlock()
    sort.Strings(keys)
    return keys
}

// Render executes the template stored under key. Missing data fields are errors.
func (c *Catalog) Render(key string, data any) (string, error) {
    key = strings.TrimSpace(key)
    t, err := c.template(key)
    if err != nil { return "", err }
    var b strings.Builder
    if err := t.Execute(&b, data); err != nil { return "", err }
    return b.String(), nil
}

// Text renders key and falls back to fallback on any error.
func (c *Catalog) Text(key string, data any, fallback string) string {
    if c == nil { return fallback }
    s, err := c.Render(key, data)
    if err != nil { return fallback }
    return s
}

func (c *Catalog) template(key string) (*template.Template, error) {
    c.mu.RLock()
    t, ok := c.parsed[key]
    src, exists := c.data[key]
    c.mu.RUnlock()
    if ok { return t, nil }
    if !exists || strings.TrimSpace(src) == "" {
        return nil, fmt.Errorf("template not found: %s", key)
    }
    t, err := template.New(key).Option("missingkey=error").Parse(src)
    if err != nil { return nil, fmt.Errorf("parse template %s: %w", key, err) }
    c.mu.Lock()
    c.parsed[key] = t
    c.mu.Unlock()
    return t, nil
}
