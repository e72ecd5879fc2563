package compass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type MockModule struct {
	installed bool
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed = true
}

func TestAppBuilder_Stateless(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.False(t, app.stateful)
	assert.Equal(t, State(0), app.initialState)
	assert.Equal(t, State(0), app.finalState)
	assert.Len(t, app.stages, len(defaultStages))
}

func TestAppBuilder_UseStates(t *testing.T) {
	app := NewAppBuilder().UseStates(StateLoading, StateDisposed).Build()

	assert.True(t, app.stateful)
	assert.Equal(t, StateLoading, app.initialState)
	assert.Equal(t, StateDisposed, app.finalState)
	for _, stage := range defaultStages {
		assert.Len(t, app.systems[stage.Name], int(StateDisposed)+1, stage.Name)
	}
}

func TestAppBuilder_Build_WithModules(t *testing.T) {
	builder := NewAppBuilder()
	module := &MockModule{}
	builder.UseModule(module)
	assert.Len(t, builder.modules, 1)

	builder.Build()
	assert.True(t, module.installed)
}

func TestAppBuilder_UseStage(t *testing.T) {
	app := NewAppBuilder().UseStates(StateLoading, StateDisposed).Build()
	late := Stage{Name: "Late"}
	app.UseStage(late, AfterStage(Render))

	names := make([]string, len(app.stages))
	for i, s := range app.stages {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"Prelude", "PreUpdate", "Update", "PostUpdate", "PreRender", "Render", "Late", "PostRender", "Finale"}, names)
	assert.NotPanics(t, func() {
		app.UseSystem(System(func() {}).InStage(late).InState(OnExecute(StateRunning)))
	})
	assert.Panics(t, func() { app.UseStage(Stage{Name: "x"}, BeforeStage(Stage{Name: "missing"})) })
}
