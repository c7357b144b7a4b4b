package report

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>VPN Traffic Statistics</title>
    <link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/css/bootstrap.min.css" rel="stylesheet">
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        body {
            background-color: #121212;
            color: #fff;
            padding: 20px;
        }
        .total-traffic {
            color: #ff6b6b;
        }
        .chart-wrapper {
            position: relative;
            height: 400px;
        }
    </style>
</head>
<body>
<div class="container">
    <h1 class="mb-4">VPN Traffic Statistics</h1>
    <p>Updated: {{.GeneratedAt}} (UTC+3)</p>

    <div class="card bg-dark mb-4">
        <div class="card-body">
            <div class="chart-wrapper">
                <canvas id="trafficChart"></canvas>
            </div>
        </div>
    </div>

    <div class="card bg-dark mb-4">
        <div class="card-body">
            <h5 class="card-title">Traffic by user</h5>
            <div class="table-responsive">
                <table class="table table-dark table-bordered">
                    <thead>
                        <tr>
                            <th>User</th>
                            <th>Downloaded (24h)</th>
                            <th>Uploaded (24h)</th>
                            <th class="total-traffic">Total (24h)</th>
                            <th>Total (7d)</th>
                            <th>Total (30d)</th>
                        </tr>
                    </thead>
                    <tbody>
                    {{- range .Users}}
                        <tr>
                            <td>{{.Name}}</td>
                            <td>{{.DayDown}}</td>
                            <td>{{.DayUp}}</td>
                            <td class="total-traffic">{{.Day}}</td>
                            <td>{{.Week}}</td>
                            <td>{{.Month}}</td>
                        </tr>
                    {{- end}}
                    </tbody>
                </table>
            </div>
        </div>
    </div>

    {{- with .Health}}
    <div class="card bg-dark mb-4">
        <div class="card-body">
            <h5 class="card-title">Server health</h5>
            <p class="mb-1">CPU: {{printf "%.1f" .CPUPercent}}%</p>
            <p class="mb-1">Memory: {{printf "%.1f" .MemUsedPercent}}%</p>
            <p class="mb-0">Disk: {{printf "%.1f" .DiskPercent}}%</p>
        </div>
    </div>
    {{- end}}
</div>

<script>
const ctx = document.getElementById('trafficChart').getContext('2d');
new Chart(ctx, {
    type: 'line',
    data: {
        labels: {{.Labels}},
        datasets: [
            {
                label: 'Downloaded (Mbit/s)',
                data: {{.Downloaded}},
                borderColor: 'rgb(54, 162, 235)',
                backgroundColor: 'rgba(54, 162, 235, 0.2)',
                fill: true
            },
            {
                label: 'Uploaded (Mbit/s)',
                data: {{.Uploaded}},
                borderColor: 'rgb(75, 192, 192)',
                backgroundColor: 'rgba(75, 192, 192, 0.2)',
                fill: true
            },
            {
                label: 'Total (Mbit/s)',
                data: {{.Total}},
                borderColor: 'rgb(255, 99, 132)',
                backgroundColor: 'rgba(255, 99, 132, 0.2)',
                fill: false,
                borderWidth: 2
            }
        ]
    },
    options: {
        responsive: true,
        scales: {
            y: {
                beginAtZero: true,
                title: {
                    display: true,
                    text: 'Mbit/s'
                },
                suggestedMax: {{.MaxBandwidth}}
            }
        },
        plugins: {
            tooltip: {
                callbacks: {
                    label: function(context) {
                        return context.dataset.label + ': ' + context.raw.toFixed(2) + ' Mbit/s';
                    }
                }
            }
        }
    }
});
</script>

</body>
</html>
`
