package hvdclient

import (
	"errors"
	"fmt"
	"strings"
)

// Static errors for err113 compliance.
var (
	ErrKindName        = errors.New("kind requires a name")
	ErrKindRuleFactory = errors.New("related-resource rule requires a path and a factory")
	ErrKindNoID        = errors.New("kind has no identifier attribute")
)

// RelatedFactory rewrites an embedded resource reference from a detail
// payload into a typed value. It receives the active remote and the raw
// value (usually a URI string) and returns the replacement; returning the
// value unchanged leaves the payload as-is.
type RelatedFactory func(remote *Remote, value interface{}) interface{}

// RelatedRule declares one embedded reference inside a detail payload: a
// path of nested keys and the factory that rewrites the resolved value.
type RelatedRule struct {
	Path    []string
	Factory RelatedFactory
}

// Kind describes one resource kind: how identifiers are derived, whether
// the kind supports rename, which embedded references its payloads carry,
// and which nested collections its resources expose.
type Kind struct {
	name         string
	idAttribute  string
	renamable    bool
	trimIDPrefix bool
	related      []RelatedRule
	subs         map[string]*Kind
}

// KindConfig is the validated configuration for a Kind.
type KindConfig struct {
	// Name identifies the kind (used in errors and CLI output).
	Name string

	// IDAttribute is the detail field carrying the resource identifier when
	// a resource is constructed from a raw detail payload. Empty means the
	// kind cannot be built from details.
	IDAttribute string

	// Renamable enables the rename operation.
	Renamable bool

	// TrimIDPrefix keeps only the trailing component of a compound
	// identifier such as "container/snapshot".
	TrimIDPrefix bool

	// Related declares the embedded references to expand in fresh detail
	// payloads.
	Related []RelatedRule

	// Subs maps nested collection names to their kinds.
	Subs map[string]*Kind
}

func newKind(cfg KindConfig) (*Kind, error) {
	if cfg.Name == "" {
		return nil, ErrKindName
	}

	for _, rule := range cfg.Related {
		if len(rule.Path) == 0 || rule.Factory == nil {
			return nil, fmt.Errorf("%w: kind %q", ErrKindRuleFactory, cfg.Name)
		}
	}

	return &Kind{
		name:         cfg.Name,
		idAttribute:  cfg.IDAttribute,
		renamable:    cfg.Renamable,
		trimIDPrefix: cfg.TrimIDPrefix,
		related:      cfg.Related,
		subs:         cfg.Subs,
	}, nil
}

func mustKind(cfg KindConfig) *Kind {
	kind, err := newKind(cfg)
	if err != nil {
		panic(err)
	}

	return kind
}

// Name returns the kind name.
func (k *Kind) Name() string {
	return k.name
}

// Renamable reports whether resources of this kind support rename.
func (k *Kind) Renamable() bool {
	return k.renamable
}

// idFromDetails derives the resource identifier from a raw detail payload.
func (k *Kind) idFromDetails(details map[string]interface{}) (string, error) {
	if k.idAttribute == "" {
		return "", fmt.Errorf("%w: %s", ErrKindNoID, k.name)
	}

	value, ok := details[k.idAttribute]
	if !ok {
		return "", fmt.Errorf("%w: %s missing %q", ErrKindNoID, k.name, k.idAttribute)
	}

	id := fmt.Sprintf("%v", value)
	if k.trimIDPrefix {
		if idx := strings.LastIndex(id, "/"); idx >= 0 {
			id = id[idx+1:]
		}
	}

	return id, nil
}

// kindFactory returns a factory turning a URI reference into a resource
// handle of the given kind. Non-string values pass through unchanged.
func kindFactory(kind *Kind) RelatedFactory {
	return func(remote *Remote, value interface{}) interface{} {
		uri, ok := value.(string)
		if !ok {
			return value
		}

		return newResource(remote, kind, uri)
	}
}

// usedByFactory resolves a used_by reference against the collections that
// can own it, passing through references of unsupported kinds.
func usedByFactory(remote *Remote, value interface{}) interface{} {
	uri, ok := value.(string)
	if !ok {
		return value
	}

	for _, collection := range []*Collection{
		remote.Containers(),
		remote.Images(),
		remote.Profiles(),
	} {
		if strings.HasPrefix(uri, collection.URI()+"/") {
			return collection.GetHandle(uri)
		}
	}

	return value
}

// The closed set of resource kinds exposed by the hvd API.
var (
	certificateKind = mustKind(KindConfig{
		Name:        "certificate",
		IDAttribute: "fingerprint",
	})

	logfileKind = mustKind(KindConfig{
		Name: "logfile",
	})

	snapshotKind = mustKind(KindConfig{
		Name:         "snapshot",
		IDAttribute:  "name",
		Renamable:    true,
		TrimIDPrefix: true,
	})

	containerKind = mustKind(KindConfig{
		Name:        "container",
		IDAttribute: "name",
		Renamable:   true,
		Subs: map[string]*Kind{
			"logs":      logfileKind,
			"snapshots": snapshotKind,
		},
	})

	imageAliasKind = mustKind(KindConfig{
		Name:        "image-alias",
		IDAttribute: "name",
		Renamable:   true,
	})

	imageKind = mustKind(KindConfig{
		Name:        "image",
		IDAttribute: "fingerprint",
	})

	networkKind = mustKind(KindConfig{
		Name:        "network",
		IDAttribute: "name",
		Renamable:   true,
	})

	operationKind = mustKind(KindConfig{
		Name:        "operation",
		IDAttribute: "id",
		Related: []RelatedRule{
			{Path: []string{"resources", "containers"}, Factory: kindFactory(containerKind)},
			{Path: []string{"resources", "images"}, Factory: kindFactory(imageKind)},
		},
	})

	profileKind = mustKind(KindConfig{
		Name:        "profile",
		IDAttribute: "name",
		Renamable:   true,
		Related: []RelatedRule{
			{Path: []string{"used_by"}, Factory: kindFactory(containerKind)},
		},
	})

	storagePoolKind = mustKind(KindConfig{
		Name:        "storage-pool",
		IDAttribute: "name",
		Renamable:   true,
		Related: []RelatedRule{
			{Path: []string{"used_by"}, Factory: usedByFactory},
		},
	})
)
