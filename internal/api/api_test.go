package api

import (
	"net/http"
	"testing"

	"github.com/sapcc/go-bits/httpapi"

	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/dataset"
	"github.com/yaroslaff/sashimidb/internal/registry"
)

// testRecords builds a fixture in the spirit of spec §8's 100-product
// end-to-end scenarios: 100 records priced 1..100, every 10th one
// "featured" and branded "Acme" so filter/aggregate scenarios have
// something to carve out.
func testRecords(n int) []*dataset.Record {
	records := make([]*dataset.Record, n)
	for i := 0; i < n; i++ {
		rec := dataset.NewRecord()
		rec.Set("id", i+1)
		rec.Set("price", i+1)
		if (i+1)%10 == 0 {
			rec.Set("category", "featured")
			rec.Set("brand", "Acme")
		} else {
			rec.Set("category", "regular")
			rec.Set("brand", "Other")
		}
		records[i] = rec
	}
	return records
}

// testHarness wires a Registry with one on-disk project ("p") holding one
// dataset ("products"), behind the handler httpapi.Compose returns,
// mirroring the teacher's internal/test/setup.go Handler wiring minus the
// CORS/logging middleware (that belongs to cmd/sashimidb, not this
// package).
type testHarness struct {
	Registry     *registry.Registry
	Project      *registry.Project
	ProjectToken string
	Dataset      *dataset.Dataset
	Handler      http.Handler
}

func newTestHarness(t *testing.T, masterValues map[string]any) *testHarness {
	t.Helper()

	master := config.New(config.RoleMaster, nil)
	for k, v := range masterValues {
		master.Set(k, v)
	}

	reg := registry.New(master, t.TempDir(), "test")
	proj, token, err := reg.CreateProject("p")
	if err != nil {
		t.Fatalf("CreateProject: %s", err.Error())
	}

	dsCfg := config.New(config.RoleDataset, proj.Config)
	ds := dataset.New("products", dsCfg)
	ds.SetRecords(testRecords(100), "")
	proj.PutDataset("products", ds, registry.DatasetSource{})

	handler := httpapi.Compose(NewProvider(reg))
	return &testHarness{Registry: reg, Project: proj, ProjectToken: token, Dataset: ds, Handler: handler}
}
