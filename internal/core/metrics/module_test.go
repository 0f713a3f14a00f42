package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-enet/config"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

// TestModule_Provides 测试模块提供的类型
func TestModule_Provides(t *testing.T) {
	var reporter Reporter
	var m *Metrics

	app := fxtest.New(t,
		Module,
		fx.Populate(&reporter, &m),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, reporter)
	assert.Same(t, m, reporter)
}

// TestModule_RegistersOnStart 测试生命周期中注册/注销
func TestModule_RegistersOnStart(t *testing.T) {
	reg := prometheus.NewRegistry()
	var m *Metrics

	app := fxtest.New(t,
		fx.Provide(func() prometheus.Registerer { return reg }),
		Module,
		fx.Populate(&m),
	)

	app.RequireStart()
	m.LogServiceError()
	count, err := testutil.GatherAndCount(reg, "enet_service_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	app.RequireStop()
	count, err = testutil.GatherAndCount(reg, "enet_service_errors_total")
	require.NoError(t, err)
	assert.Zero(t, count)
}

// TestModule_Disabled 测试禁用时不注册
func TestModule_Disabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Metrics.Enabled = false
	reg := prometheus.NewRegistry()

	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() prometheus.Registerer { return reg }),
		Module,
		fx.Invoke(func(Reporter) {}),
	)
	defer app.RequireStart().RequireStop()

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}
