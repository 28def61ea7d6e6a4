package gen_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/joincivil/civil-chainlist/pkg/gen"
)

func TestGenerateEventLists(t *testing.T) {
	buf := &bytes.Buffer{}
	err := gen.GenerateEventLists(buf, "testpackage", gen.DefaultContracts())
	if err != nil {
		t.Errorf("Should have not failed to generate event lists: err: %v", err)
	}

	code := buf.String()
	if !strings.Contains(code, "package testpackage") {
		t.Error("Did not see expected package name in the generated code")
	}
	if !strings.Contains(code, "func IsValidChainListContractEventName") {
		t.Error("Did not see expected IsValidChainListContractEventName in the generated code")
	}
	if !strings.Contains(code, "\"LogBuyArticle\",") || !strings.Contains(code, "\"LogSellArticle\",") {
		t.Error("Did not see expected event names in the generated code")
	}
}

func TestGenerateEventListsBadAbi(t *testing.T) {
	buf := &bytes.Buffer{}
	contracts := []*gen.ContractDef{{Name: "BadContract", AbiStr: "not an abi"}}
	err := gen.GenerateEventLists(buf, "testpackage", contracts)
	if err != nil {
		t.Errorf("Should have skipped the bad ABI: err: %v", err)
	}
	if strings.Contains(buf.String(), "BadContract") {
		t.Error("Should not have generated code for a bad ABI")
	}
}
