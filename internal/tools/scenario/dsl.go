// Package scenario loads and executes Lua battle scripts against the game
// engine. Scripts build a roster, play out moves and attacks turn by turn,
// and assert on the derived state between steps.
package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is a parsed battle script: a roster plus an ordered list of
// steps to play.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted instruction.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs a Lua script and returns the Scenario it built.
// The script must return the Scenario userdata as its single result.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	registerScenarioType(state)
	registerScenarioConstructor(state)
}

func registerScenarioType(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScenarioConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "seed", Function: scenarioSeed},
	{Name: "turn_limit", Function: scenarioTurnLimit},
	{Name: "unit", Function: scenarioUnit},
	{Name: "deploy", Function: scenarioDeploy},
	{Name: "rolls", Function: scenarioRolls},
	{Name: "move", Function: scenarioMove},
	{Name: "fire", Function: scenarioFire},
	{Name: "physical", Function: scenarioPhysical},
	{Name: "end_phase", Function: scenarioEndPhase},
	{Name: "concede", Function: scenarioConcede},
	{Name: "run_to_completion", Function: scenarioRunToCompletion},
	{Name: "expect_armor", Function: scenarioExpectArmor},
	{Name: "expect_structure", Function: scenarioExpectStructure},
	{Name: "expect_heat", Function: scenarioExpectHeat},
	{Name: "expect_prone", Function: scenarioExpectProne},
	{Name: "expect_shutdown", Function: scenarioExpectShutdown},
	{Name: "expect_destroyed", Function: scenarioExpectDestroyed},
	{Name: "expect_phase", Function: scenarioExpectPhase},
	{Name: "expect_winner", Function: scenarioExpectWinner},
	{Name: "expect_rejected", Function: scenarioExpectRejected},
}

func scenarioSeed(state *lua.State) int {
	scenario := checkScenario(state)
	seed := lua.CheckInteger(state, 2)
	appendStep(scenario, "seed", map[string]any{"value": seed})
	return 0
}

func scenarioTurnLimit(state *lua.State) int {
	scenario := checkScenario(state)
	limit := lua.CheckInteger(state, 2)
	appendStep(scenario, "turn_limit", map[string]any{"value": limit})
	return 0
}

func scenarioUnit(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	appendStep(scenario, "unit", data)
	return 0
}

func scenarioDeploy(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	appendStep(scenario, "deploy", data)
	return 0
}

// rolls pins the dice stream to a fixed sequence for the rest of the game.
func scenarioRolls(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "rolls", map[string]any{"values": tableToGo(state, 2)})
	return 0
}

func scenarioMove(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	appendStep(scenario, "move", data)
	return 0
}

func scenarioFire(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	appendStep(scenario, "fire", data)
	return 0
}

func scenarioPhysical(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	appendStep(scenario, "physical", data)
	return 0
}

func scenarioEndPhase(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "end_phase", nil)
	return 0
}

func scenarioConcede(state *lua.State) int {
	scenario := checkScenario(state)
	side := lua.CheckString(state, 2)
	appendStep(scenario, "concede", map[string]any{"side": side})
	return 0
}

func scenarioRunToCompletion(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "run_to_completion", nil)
	return 0
}

func scenarioExpectArmor(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	appendStep(scenario, "expect_armor", data)
	return 0
}

func scenarioExpectStructure(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	appendStep(scenario, "expect_structure", data)
	return 0
}

func scenarioExpectHeat(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	appendStep(scenario, "expect_heat", data)
	return 0
}

func scenarioExpectProne(state *lua.State) int {
	scenario := checkScenario(state)
	unitID := lua.CheckString(state, 2)
	appendStep(scenario, "expect_prone", map[string]any{"unit": unitID})
	return 0
}

func scenarioExpectShutdown(state *lua.State) int {
	scenario := checkScenario(state)
	unitID := lua.CheckString(state, 2)
	appendStep(scenario, "expect_shutdown", map[string]any{"unit": unitID})
	return 0
}

func scenarioExpectDestroyed(state *lua.State) int {
	scenario := checkScenario(state)
	unitID := lua.CheckString(state, 2)
	appendStep(scenario, "expect_destroyed", map[string]any{"unit": unitID})
	return 0
}

func scenarioExpectPhase(state *lua.State) int {
	scenario := checkScenario(state)
	phase := lua.CheckString(state, 2)
	appendStep(scenario, "expect_phase", map[string]any{"phase": phase})
	return 0
}

func scenarioExpectWinner(state *lua.State) int {
	scenario := checkScenario(state)
	side := lua.OptString(state, 2, "")
	appendStep(scenario, "expect_winner", map[string]any{"side": side})
	return 0
}

func scenarioExpectRejected(state *lua.State) int {
	scenario := checkScenario(state)
	code := lua.OptString(state, 2, "")
	appendStep(scenario, "expect_rejected", map[string]any{"code": code})
	return 0
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) int {
	if scenario == nil {
		return -1
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
	return len(scenario.Steps) - 1
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	case lua.TypeUserData:
		return state.ToUserData(index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
