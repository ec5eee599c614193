package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
	"time"
)

type paymentPageData struct {
	OrderID        string
	OperationID    string
	PaymentID      string
	Amount         string
	QRImage        template.URL
	SuccessURL     string
	FailURL        string
	CheckStatusURL string
	InitialDelayMS int64
	PollIntervalMS int64
	RedirectAfter  int64
}

type errorPageData struct {
	Message string
}

var paymentPageTemplate = template.Must(template.New("payment_page").Parse(`<!doctype html>
<html lang="ru">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Оплата заказа #{{.OrderID}}</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Arial, sans-serif; max-width: 700px; margin: 0 auto; padding: 20px; background: #f5f5f5; color: #1f2937; }
    .card { background: #fff; padding: 28px; border-radius: 16px; box-shadow: 0 4px 20px rgba(0,0,0,0.08); text-align: center; }
    h1 { margin: 0 0 16px; font-size: 24px; }
    .amount { font-size: 32px; font-weight: bold; color: #15803d; margin: 16px 0; }
    .qr { max-width: 100%; border: 2px solid #2563eb; border-radius: 10px; padding: 10px; background: #fff; }
    .order { background: #fef9c3; padding: 10px; border-radius: 6px; margin: 10px 0; color: #854d0e; text-align: left; font-size: 14px; }
    .hint { background: #e0f2fe; padding: 14px; border-radius: 8px; margin: 16px 0; text-align: left; }
    .state { padding: 14px; border-radius: 8px; margin: 16px 0; display: none; }
    .state.paid { background: #dcfce7; color: #166534; }
    .state.pending, .state.warning { background: #fef9c3; color: #854d0e; }
    .checking { background: #e0f2fe; color: #1d4ed8; padding: 10px; border-radius: 6px; margin: 10px 0; }
    .diag { background: #f8fafc; padding: 14px; border-radius: 6px; margin: 10px 0; font-size: 12px; color: #64748b; text-align: left; border: 1px dashed #cbd5e1; }
    .log { background: #1e293b; color: #e2e8f0; padding: 10px; border-radius: 6px; font-family: monospace; font-size: 11px; text-align: left; max-height: 200px; overflow-y: auto; white-space: pre-wrap; }
    .button { padding: 12px 22px; border: 0; border-radius: 6px; font-size: 15px; cursor: pointer; margin: 8px 4px; text-decoration: none; display: inline-block; color: #fff; }
    .button.check { background: #2563eb; }
    .button.deep { background: #d97706; }
    .button.paid { background: #15803d; }
    .button.cancel { background: #dc2626; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Оплата заказа #{{.OrderID}}</h1>
    <div class="order">
      <strong>Operation ID:</strong> {{.OperationID}}<br>
      <strong>Order ID:</strong> {{.OrderID}}<br>
      <strong>Payment ID:</strong> {{.PaymentID}}
    </div>
    <div class="amount">{{.Amount}} руб.</div>
    <img src="{{.QRImage}}" alt="QR" class="qr">
    <div class="hint">
      Отсканируйте QR-код в приложении банка и подтвердите оплату.<br>
      Страница сама проверит статус и вернёт вас в магазин.
    </div>

    <div id="checking" class="checking">Первая проверка статуса скоро начнётся...</div>

    <div id="paidState" class="state paid">
      <strong>Оплачено</strong><br>
      Возврат в магазин через <span id="timer">{{.RedirectAfter}}</span> сек.
    </div>
    <div id="pendingState" class="state pending">
      <strong>Ожидаем оплату</strong><br>
      <small>Текущий статус: <span id="statusInfo">проверяем...</span></small>
    </div>
    <div id="warningState" class="state warning">
      <strong>Деньги списались, а статус не обновился?</strong><br>
      <small>Платёжная система может отвечать с задержкой. Нажмите «Я оплатил».</small>
    </div>

    <div class="diag">
      <strong>Диагностика</strong><br>
      Проверок: <span id="checkCount">0</span><br>
      Endpoint: <span id="endpoint">-</span><br>
      Последний код: <span id="lastCode">-</span>
      <div id="log" class="log"></div>
    </div>

    <div>
      <button id="checkBtn" class="button check" type="button">Проверить сейчас</button>
      <button id="deepBtn" class="button deep" type="button">Глубокая проверка</button>
      <a id="manualBtn" class="button paid" href="{{.SuccessURL}}">Я оплатил</a>
      <a class="button cancel" href="{{.FailURL}}">Отмена</a>
    </div>
  </div>

  <script>
    (() => {
      const operationId = {{.OperationID}};
      const successUrl = {{.SuccessURL}};
      const checkStatusUrl = {{.CheckStatusURL}};
      const initialDelay = {{.InitialDelayMS}};
      const pollInterval = {{.PollIntervalMS}};
      const redirectAfter = {{.RedirectAfter}};
      const pendingWarnAfter = 3;

      let timerId = null;
      let paid = false;
      let checks = 0;
      let pendingStreak = 0;

      const el = (id) => document.getElementById(id);

      function log(message) {
        const box = el('log');
        box.textContent += '> [' + new Date().toLocaleTimeString() + '] ' + message + '\n';
        box.scrollTop = box.scrollHeight;
      }

      function show(state) {
        ['paidState', 'pendingState', 'warningState'].forEach((id) => {
          el(id).style.display = id === state ? 'block' : 'none';
        });
      }

      function describe(code, message, fallback) {
        el('statusInfo').textContent = 'код ' + code + ' - ' + (message || fallback);
      }

      function redirect() {
        let left = redirectAfter;
        el('timer').textContent = left;
        log('Переход в магазин через ' + left + ' сек.');
        const countdown = setInterval(() => {
          left--;
          el('timer').textContent = Math.max(left, 0);
          if (left <= 0) {
            clearInterval(countdown);
            window.location.href = successUrl;
          }
        }, 1000);
      }

      async function check(forceCheck) {
        if (paid) return;
        checks++;
        el('checkCount').textContent = checks;
        el('checking').style.display = 'block';
        el('checking').textContent = forceCheck ? 'Глубокая проверка...' : 'Проверяем статус...';
        log((forceCheck ? 'Глубокая проверка #' : 'Проверка #') + checks);

        try {
          const response = await fetch(checkStatusUrl, {
            method: 'POST',
            headers: { 'Content-Type': 'application/json' },
            body: JSON.stringify({ operationId: operationId, forceCheck: !!forceCheck }),
          });
          const result = await response.json();
          const code = result.statusCode || result.status || 'unknown';
          el('lastCode').textContent = code;
          el('endpoint').textContent = result.endpoint || '-';
          el('checking').style.display = 'none';
          log('Ответ: ' + result.status + ', код ' + code + (result.endpoint ? ', endpoint ' + result.endpoint : ''));

          if (result.success && result.status === 'paid') {
            paid = true;
            pendingStreak = 0;
            if (timerId) clearInterval(timerId);
            ['checkBtn', 'deepBtn', 'manualBtn'].forEach((id) => { el(id).style.display = 'none'; });
            show('paidState');
            redirect();
            return;
          }
          if (result.status === 'pending') {
            pendingStreak++;
            if (pendingStreak >= pendingWarnAfter) {
              show('warningState');
              log('Статус долго не меняется');
            } else {
              show('pendingState');
            }
            describe(code, result.message, 'ожидание оплаты');
            return;
          }
          pendingStreak = 0;
          show('pendingState');
          describe(code, result.message || result.error, 'не оплачено');
        } catch (error) {
          el('checking').style.display = 'none';
          log('Ошибка проверки: ' + error.message);
          show('pendingState');
          describe('error', 'ошибка проверки');
        }
      }

      el('checkBtn').addEventListener('click', () => check(false));
      el('deepBtn').addEventListener('click', () => check(true));

      log('Мониторинг операции ' + operationId);
      log('Интервал проверки: ' + Math.round(pollInterval / 1000) + ' сек.');
      setTimeout(() => {
        check(false);
        timerId = setInterval(() => check(false), pollInterval);
      }, initialDelay);
    })();
  </script>
</body>
</html>
`))

var errorPageTemplate = template.Must(template.New("error_page").Parse(`<!doctype html>
<html lang="ru">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Ошибка оплаты</title>
</head>
<body>
  <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 40px auto; padding: 24px; border-radius: 12px; background: #fee2e2; color: #991b1b;">
    <h2>Ошибка: {{.Message}}</h2>
    <p>Попробуйте обновить страницу или вернуться в магазин позже.</p>
  </div>
</body>
</html>
`))

func (h *Handler) newPageData(orderID, operationID, paymentID, amount, qrImage, successURL, failURL string) paymentPageData {
	return paymentPageData{
		OrderID:        orderID,
		OperationID:    operationID,
		PaymentID:      paymentID,
		Amount:         amount,
		QRImage:        imageSource(qrImage),
		SuccessURL:     successURL,
		FailURL:        failURL,
		CheckStatusURL: "/api/check-status",
		InitialDelayMS: h.cfg.Page.InitialDelay.Milliseconds(),
		PollIntervalMS: h.cfg.Page.PollInterval.Milliseconds(),
		RedirectAfter:  int64(h.cfg.Page.RedirectWait / time.Second),
	}
}

func renderPaymentPage(data paymentPageData) (string, error) {
	var buf bytes.Buffer
	if err := paymentPageTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderErrorPage(message string) string {
	var buf bytes.Buffer
	if err := errorPageTemplate.Execute(&buf, errorPageData{Message: message}); err != nil {
		return "<html><body><h2>Error</h2></body></html>"
	}
	return buf.String()
}

func writeHTML(w http.ResponseWriter, status int, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}

// imageSource passes provider image references through the template
// sanitizer only for http(s) and inline image data.
func imageSource(raw string) template.URL {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "data:image/"):
		return template.URL(raw)
	case raw != "" && !strings.Contains(raw, ":") && !strings.HasPrefix(raw, "/"):
		// bare base64 payload
		return template.URL("data:image/png;base64," + raw)
	default:
		return ""
	}
}
