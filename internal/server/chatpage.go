// Package server serves the built-in single-file chat page used to exercise
// the WebSocket protocol from a browser.
package server

import (
	"fmt"
	"log"
	"net/http"
)

// ChatPageHandler serves an HTML chat client speaking the event protocol:
// it connects to /ws, renders messages, typing indicators, and the roster.
func ChatPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, chatPageHTML); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}

const chatPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>EchoRoom</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; display: flex; gap: 20px; }
        #main { flex: 3; }
        #sidebar { flex: 1; border-left: 1px solid #ccc; padding-left: 15px; }
        #messages {
            border: 1px solid #ccc;
            height: 320px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        #typing { color: gray; font-style: italic; min-height: 1.2em; }
        input[type="text"] { width: 280px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
    </style>
</head>
<body>
    <div id="main">
        <h1>EchoRoom</h1>
        <div id="status">Connecting...</div>
        <div id="messages"></div>
        <div id="typing"></div>
        <div>
            <input type="text" id="messageInput" placeholder="Type a message...">
            <button onclick="sendMessage()">Send</button>
        </div>
        <div style="margin-top:10px">
            <input type="text" id="nameInput" placeholder="New username...">
            <button onclick="changeName()">Rename</button>
        </div>
    </div>
    <div id="sidebar">
        <h3>Online (<span id="count">0</span>)</h3>
        <ul id="users"></ul>
    </div>

    <script>
        const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
        const ws = new WebSocket(proto + location.host + '/ws');
        let myId = null;
        let typingTimer = null;

        function send(event, data) {
            ws.send(JSON.stringify({event: event, data: data}));
        }

        function addLine(html) {
            const div = document.createElement('div');
            div.innerHTML = html;
            const box = document.getElementById('messages');
            box.appendChild(div);
            box.scrollTop = box.scrollHeight;
        }

        ws.onmessage = function(e) {
            const msg = JSON.parse(e.data);
            const d = msg.data;
            switch (msg.event) {
            case 'welcome':
                myId = d.id;
                document.getElementById('status').textContent =
                    'Connected as ' + d.username + ' (server v' + d.serverVersion + ')';
                break;
            case 'new-message':
                addLine('<strong>' + d.username + '</strong> [' + d.time + ']: ' + d.message);
                break;
            case 'user-joined':
                addLine('<em>' + d.username + ' joined at ' + d.time + '</em>');
                break;
            case 'user-left':
                addLine('<em>' + d.username + ' left (' + d.reason + ')</em>');
                break;
            case 'username-changed':
                addLine('<em>' + d.oldUsername + ' is now ' + d.newUsername + '</em>');
                break;
            case 'user-count-update':
                document.getElementById('count').textContent = d;
                break;
            case 'active-users-update':
                const list = document.getElementById('users');
                list.innerHTML = '';
                d.forEach(function(u) {
                    const li = document.createElement('li');
                    li.textContent = u.username + (u.id === myId ? ' (you)' : '');
                    list.appendChild(li);
                });
                break;
            case 'user-typing':
                document.getElementById('typing').textContent = d.username + ' is typing...';
                break;
            case 'user-stop-typing':
                document.getElementById('typing').textContent = '';
                break;
            case 'server-shutdown':
                addLine('<em>' + d.message + '</em>');
                break;
            }
        };

        ws.onclose = function() {
            document.getElementById('status').textContent = 'Disconnected';
        };

        function sendMessage() {
            const input = document.getElementById('messageInput');
            if (input.value.trim()) {
                send('send-message', {message: input.value});
                send('stop-typing', null);
                input.value = '';
            }
        }

        function changeName() {
            const input = document.getElementById('nameInput');
            if (input.value.trim()) {
                send('update-username', {newUsername: input.value});
                input.value = '';
            }
        }

        document.getElementById('messageInput').addEventListener('input', function() {
            send('typing', {});
            clearTimeout(typingTimer);
            typingTimer = setTimeout(function() { send('stop-typing', null); }, 1500);
        });

        document.getElementById('messageInput').addEventListener('keypress', function(e) {
            if (e.key === 'Enter') sendMessage();
        });
    </script>
</body>
</html>`
