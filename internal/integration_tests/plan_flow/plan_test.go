package integration_tests

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/serializer"
	"github.com/vk/tenantgridgo/internal/tenant"
	"github.com/vk/tenantgridgo/internal/testutil"
)

const utilHCL = `
object "script" "util" {
  key = "custscript_util"
  attributes {
    source = "/SuiteScripts/util.js"
  }
}
`

// remoteUtil mirrors the util object from utilHCL as the tenant holds it,
// so its digest matches what the planner computes locally.
func remoteUtil(t *testing.T) tenant.RemoteObject {
	t.Helper()
	docs, err := serializer.New().Serialize(&model.ObjectElement{
		Family: "script",
		Name:   "util",
		Key:    "custscript_util",
		Attributes: cty.ObjectVal(map[string]cty.Value{
			"source": cty.StringVal("/SuiteScripts/util.js"),
		}),
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	return tenant.RemoteObject{
		Family: "script",
		Key:    "custscript_util",
		Name:   "util",
		Digest: docs[0].Digest(),
	}
}

func TestPlan_CleanTenantReportsNoChanges(t *testing.T) {
	// --- Arrange ---
	server := &testutil.FakeTenant{
		Objects: map[string][]tenant.RemoteObject{
			"script": {remoteUtil(t)},
		},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": utilHCL}, server, nil)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "no changes")
}

func TestPlan_AbsentObjectPlansAsAddition(t *testing.T) {
	// --- Arrange ---
	server := &testutil.FakeTenant{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": utilHCL}, server, nil)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "+ object.script.util")
	assert.Contains(t, result.LogOutput, "plan: 1 to add, 0 to change")
}

func TestPlan_DriftedObjectPlansAsModification(t *testing.T) {
	// --- Arrange ---
	// The tenant holds util with a different digest than the blueprint's
	// rendering, so the planner must flag a modification.
	remote := remoteUtil(t)
	remote.Digest = "0000000000000000000000000000000000000000000000000000000000000000"
	server := &testutil.FakeTenant{
		Objects: map[string][]tenant.RemoteObject{
			"script": {remote},
		},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": utilHCL}, server, nil)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "~ object.script.util")
	assert.Contains(t, result.LogOutput, "plan: 0 to add, 1 to change")
}

func TestPlan_FeatureDriftPlansAsModification(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{"main.hcl": `
features {
  enabled = ["server_scripting"]
}
`}
	server := &testutil.FakeTenant{
		Features: map[string]bool{"server_scripting": false},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, server, nil)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "~ features")
	assert.Contains(t, result.LogOutput, "plan: 0 to add, 1 to change")
}

func TestPlan_SettingsAlwaysCompareByDigest(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{"main.hcl": `
settings "company_info" {
  attributes {
    legal_name = "Acme Corp"
  }
}
`}
	// The tenant's settings document differs from the blueprint's.
	remoteDoc, err := json.Marshal(map[string]any{
		"type":       "company_info",
		"attributes": map[string]any{"legal_name": "Acme Inc"},
	})
	require.NoError(t, err)
	server := &testutil.FakeTenant{
		Settings: map[string]json.RawMessage{"company_info": remoteDoc},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, server, nil)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "~ settings.company_info")
}
