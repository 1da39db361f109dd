package config_test

import (
	"testing"

	"github.com/sapcc/go-bits/assert"

	"github.com/yaroslaff/sashimidb/internal/config"
)

func TestScalarResolutionNearestWins(t *testing.T) {
	master := config.New(config.RoleMaster, nil)
	master.Set("ip_header", "X-Forwarded-For")
	master.Set("model", "default")

	project := config.New(config.RoleProject, master)
	project.Set("model", "extended")

	dataset := config.New(config.RoleDataset, project)

	v, ok := dataset.String("model")
	assert.DeepEqual(t, "dataset model resolved", ok, true)
	assert.DeepEqual(t, "dataset model value", v, "extended")

	v, ok = dataset.String("ip_header")
	assert.DeepEqual(t, "dataset ip_header resolved", ok, true)
	assert.DeepEqual(t, "dataset ip_header value", v, "X-Forwarded-For")
}

func TestScalarResolutionUnsetFallsThrough(t *testing.T) {
	master := config.New(config.RoleMaster, nil)
	project := config.New(config.RoleProject, master)
	dataset := config.New(config.RoleDataset, project)

	_, ok := dataset.String("nonexistent")
	assert.DeepEqual(t, "unset key not found", ok, false)
}

func TestTokensConcatenateRootToLeaf(t *testing.T) {
	master := config.New(config.RoleMaster, nil)
	master.Set("tokens", []any{"master-token"})

	project := config.New(config.RoleProject, master)
	project.Set("tokens", []any{"project-token"})

	dataset := config.New(config.RoleDataset, project)
	dataset.Set("tokens", []any{"dataset-token"})

	got := dataset.StringListInherited("tokens")
	want := []string{"master-token", "project-token", "dataset-token"}
	assert.DeepEqual(t, "token chain", got, want)
}

func TestTrustedIPsConcatenateWithGaps(t *testing.T) {
	master := config.New(config.RoleMaster, nil)
	master.Set("trusted_ips", []any{"10.0.0.0/8"})

	project := config.New(config.RoleProject, master)
	// project defines nothing

	dataset := config.New(config.RoleDataset, project)
	dataset.Set("trusted_ips", []any{"192.168.1.1/32"})

	got := dataset.StringListInherited("trusted_ips")
	want := []string{"10.0.0.0/8", "192.168.1.1/32"}
	assert.DeepEqual(t, "trusted ip chain skips empty project level", got, want)
}

func TestUnknownKeyPassesThrough(t *testing.T) {
	master := config.New(config.RoleMaster, nil)
	dataset := config.New(config.RoleDataset, master)
	dataset.Set("custom_extension_field", "anything")

	v, ok := dataset.Get("custom_extension_field")
	assert.DeepEqual(t, "unknown key found", ok, true)
	assert.DeepEqual(t, "unknown key value", v, "anything")
}

func TestValidNames(t *testing.T) {
	cases := map[string]bool{
		"products":     true,
		"my-dataset.2": true,
		"_hidden":      false,
		"":             false,
		"has space":    false,
	}
	for name, want := range cases {
		got := config.ValidDatasetName(name)
		assert.DeepEqual(t, "ValidDatasetName("+name+")", got, want)
		got = config.ValidProjectName(name)
		assert.DeepEqual(t, "ValidProjectName("+name+")", got, want)
	}
}

func TestEnvOverridesParsesDatasetPairs(t *testing.T) {
	t.Setenv("SASHIMI_DATASET", "products:/data/products.json catalog:https://example.com/catalog.yaml")
	t.Setenv("SASHIMI_TOKEN", "")
	t.Setenv("SASHIMI_TRUSTED_IP", "")
	t.Setenv("SASHIMI_CONFIG", "")
	t.Setenv("SASHIMI_IP_HEADER", "")

	eo := config.ReadEnvOverrides()
	assert.DeepEqual(t, "dataset count", len(eo.Datasets), 2)
	assert.DeepEqual(t, "first dataset name", eo.Datasets[0].Name, "products")
	assert.DeepEqual(t, "first dataset is file", eo.Datasets[0].IsURL, false)
	assert.DeepEqual(t, "second dataset name", eo.Datasets[1].Name, "catalog")
	assert.DeepEqual(t, "second dataset is url", eo.Datasets[1].IsURL, true)
}

func TestEnvOverridesApplyAppendsToMaster(t *testing.T) {
	t.Setenv("SASHIMI_DATASET", "")
	t.Setenv("SASHIMI_TOKEN", "env-token")
	t.Setenv("SASHIMI_TRUSTED_IP", "203.0.113.5/32")
	t.Setenv("SASHIMI_CONFIG", "")
	t.Setenv("SASHIMI_IP_HEADER", "X-Real-IP")

	master := config.New(config.RoleMaster, nil)
	master.Set("tokens", []any{"existing-token"})

	eo := config.ReadEnvOverrides()
	eo.Apply(master)

	got := master.StringListInherited("tokens")
	want := []string{"existing-token", "env-token"}
	assert.DeepEqual(t, "tokens after env apply", got, want)

	ips := master.StringListInherited("trusted_ips")
	assert.DeepEqual(t, "trusted ips after env apply", ips, []string{"203.0.113.5/32"})

	header, ok := master.String("ip_header")
	assert.DeepEqual(t, "ip_header resolved", ok, true)
	assert.DeepEqual(t, "ip_header value", header, "X-Real-IP")
}

func TestParseYAMLNormalizesNestedMaps(t *testing.T) {
	body := []byte("allowed_operations:\n  - search\n  - update\nnamed_search:\n  cheap:\n    filter:\n      price__lt: 10\n")
	out, err := config.ParseYAML(body)
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	ns, ok := out["named_search"].(map[string]any)
	if !ok {
		t.Fatalf("named_search did not normalize to map[string]any, got %T", out["named_search"])
	}
	cheap, ok := ns["cheap"].(map[string]any)
	if !ok {
		t.Fatalf("cheap did not normalize to map[string]any, got %T", ns["cheap"])
	}
	if _, ok := cheap["filter"].(map[string]any); !ok {
		t.Fatalf("filter did not normalize to map[string]any, got %T", cheap["filter"])
	}
}
